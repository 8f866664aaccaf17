// Package summary turns a completed interview transcript into a structured
// feedback bundle with a single schema-constrained model call.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/parley/parley/internal/interview"
	"github.com/parley/parley/internal/language"
	"github.com/parley/parley/internal/llm"
)

// bundleSchema constrains the model output to exactly the persisted bundle
// shape. Sentiment is an enum so the model cannot free-text it.
var bundleSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary": {
			Type:        genai.TypeString,
			Description: "Two to four sentence summary of the client's feedback",
		},
		"keyThemes": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "Short reusable theme names, 2-4 words each",
		},
		"sentiment": {
			Type: genai.TypeString,
			Enum: []string{"positive", "mixed", "negative"},
		},
		"specificPraise": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"areasForImprovement": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"summary", "keyThemes", "sentiment", "specificPraise", "areasForImprovement"},
}

// bundlePayload is the wire shape of the structured model response.
type bundlePayload struct {
	Summary             string   `json:"summary"`
	KeyThemes           []string `json:"keyThemes"`
	Sentiment           string   `json:"sentiment"`
	SpecificPraise      []string `json:"specificPraise"`
	AreasForImprovement []string `json:"areasForImprovement"`
}

// Generator produces and persists feedback bundles.
type Generator struct {
	store  interview.Store
	llm    llm.Client
	logger *zap.Logger
}

// NewGenerator creates a new summary generator
func NewGenerator(store interview.Store, llmClient llm.Client, logger *zap.Logger) *Generator {
	return &Generator{
		store:  store,
		llm:    llmClient,
		logger: logger,
	}
}

// Generate analyzes the interview's transcript and persists the resulting
// bundle in one atomic write. Re-running replaces the previous bundle
// wholesale. The record is never partially written: any upstream or
// validation failure leaves it untouched.
func (g *Generator) Generate(ctx context.Context, token string) (*interview.SummaryBundle, error) {
	iv, err := g.store.GetInterviewByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	turns, err := g.store.ListTurns(ctx, iv.UUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	if len(turns) == 0 {
		return nil, interview.NewInsufficientDataError(token)
	}

	code := language.English
	if iv.DetectedLanguage != nil {
		code = *iv.DetectedLanguage
	}

	var payload bundlePayload
	err = g.llm.StructuredCompletion(ctx, language.AnalysisInstructions(code), renderTranscript(turns), bundleSchema, &payload)
	if err != nil {
		return nil, interview.NewSummaryFailedError(token, classifyUpstream(token, err))
	}

	bundle, err := bundleFromPayload(payload)
	if err != nil {
		return nil, interview.NewSummaryFailedError(token, interview.NewMalformedResultError(token, err))
	}

	if err := g.store.SaveSummary(ctx, iv.UUID, bundle); err != nil {
		return nil, fmt.Errorf("failed to persist summary: %w", err)
	}

	g.logger.Info("summary generated",
		zap.String("token", token),
		zap.String("sentiment", string(bundle.Sentiment)),
		zap.Int("themes", len(bundle.KeyThemes)))
	return bundle, nil
}

func bundleFromPayload(p bundlePayload) (*interview.SummaryBundle, error) {
	sentiment := interview.Sentiment(p.Sentiment)
	if !sentiment.Valid() {
		return nil, fmt.Errorf("unknown sentiment %q", p.Sentiment)
	}
	if strings.TrimSpace(p.Summary) == "" {
		return nil, fmt.Errorf("empty summary text")
	}

	return &interview.SummaryBundle{
		Summary:             p.Summary,
		KeyThemes:           normalizeList(p.KeyThemes),
		Sentiment:           sentiment,
		SpecificPraise:      normalizeList(p.SpecificPraise),
		AreasForImprovement: normalizeList(p.AreasForImprovement),
		GeneratedAt:         time.Now(),
	}, nil
}

// normalizeList drops blank entries and guarantees a non-nil slice so the
// persisted jsonb is always an array.
func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// renderTranscript flattens turns into the labeled text block sent upstream.
func renderTranscript(turns []interview.Turn) string {
	var b strings.Builder
	b.WriteString("Interview transcript:\n\n")
	for _, t := range turns {
		label := "Client"
		if t.Role == interview.RoleAssistant {
			label = "Interviewer"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func classifyUpstream(token string, err error) error {
	if errors.Is(err, llm.ErrMalformed) {
		return interview.NewMalformedResultError(token, err)
	}
	return interview.NewUpstreamError(token, err)
}
