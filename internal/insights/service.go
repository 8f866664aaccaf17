package insights

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/parley/parley/internal/interview"
	"github.com/parley/parley/internal/llm"
)

// overallSchema constrains the cross-interview synthesis response.
var overallSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"overallSummary": {
			Type:        genai.TypeString,
			Description: "A few sentences summarizing the feedback across all interviews",
		},
		"strengths": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"weaknesses": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"patterns": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "Recurring observations that span multiple interviews",
		},
		"actionableInsights": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"overallSummary", "strengths", "weaknesses", "patterns", "actionableInsights"},
}

const overallInstructions = `You are synthesizing client feedback about the consultant, an organizational psychologist and management consultant, from per-interview summaries.

Identify what holds across interviews rather than repeating individual summaries. Weight recurring observations over one-off remarks, keep each list entry to a single sentence, and make actionable insights concrete enough to act on.`

// Service computes cross-interview aggregates and syntheses.
type Service struct {
	store     interview.Store
	llm       llm.Client
	topThemes int
	logger    *zap.Logger
}

// NewService creates a new insights service
func NewService(store interview.Store, llmClient llm.Client, topThemes int, logger *zap.Logger) *Service {
	if topThemes <= 0 {
		topThemes = 10
	}
	return &Service{
		store:     store,
		llm:       llmClient,
		topThemes: topThemes,
		logger:    logger,
	}
}

// Aggregate folds every completed interview into theme counts and a
// sentiment histogram. Interviews without a summary count toward the total
// but contribute nothing else. Deterministic for a given data set.
func (s *Service) Aggregate(ctx context.Context) (*AggregateInsight, error) {
	interviews, err := s.store.ListCompletedInterviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed interviews: %w", err)
	}

	out := &AggregateInsight{
		TotalInterviews: len(interviews),
		TopThemes:       []ThemeCount{},
	}

	counts := make(map[string]int)
	var firstSeen []string

	for _, iv := range interviews {
		if iv.Summary == nil {
			continue
		}
		out.TotalWithSummary++

		switch iv.Summary.Sentiment {
		case interview.SentimentPositive:
			out.SentimentDistribution.Positive++
		case interview.SentimentMixed:
			out.SentimentDistribution.Mixed++
		case interview.SentimentNegative:
			out.SentimentDistribution.Negative++
		}

		for _, theme := range iv.Summary.KeyThemes {
			if counts[theme] == 0 {
				firstSeen = append(firstSeen, theme)
			}
			counts[theme]++
		}
	}

	// Descending by count; first-seen order breaks ties.
	sort.SliceStable(firstSeen, func(i, j int) bool {
		return counts[firstSeen[i]] > counts[firstSeen[j]]
	})

	limit := s.topThemes
	if len(firstSeen) < limit {
		limit = len(firstSeen)
	}
	for _, theme := range firstSeen[:limit] {
		out.TopThemes = append(out.TopThemes, ThemeCount{Theme: theme, Count: counts[theme]})
	}

	return out, nil
}

// Overall synthesizes one analysis across every summarized interview with a
// single structured model call. The result is returned to the caller and
// never stored.
func (s *Service) Overall(ctx context.Context) (*OverallAnalysis, error) {
	interviews, err := s.store.ListCompletedInterviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed interviews: %w", err)
	}

	input := renderBundles(interviews)
	if input == "" {
		return nil, &interview.Error{
			Type:    interview.ErrorTypeInsufficientData,
			Message: "no summarized interviews to analyze",
		}
	}

	var analysis OverallAnalysis
	if err := s.llm.StructuredCompletion(ctx, overallInstructions, input, overallSchema, &analysis); err != nil {
		return nil, interview.NewSummaryFailedError("", interview.NewUpstreamError("", err))
	}
	if strings.TrimSpace(analysis.OverallSummary) == "" {
		return nil, interview.NewSummaryFailedError("", interview.NewMalformedResultError("", fmt.Errorf("empty overall summary")))
	}

	s.logger.Info("overall analysis generated", zap.Int("interviews", len(interviews)))
	return &analysis, nil
}

// renderBundles concatenates every summary bundle into the synthesis prompt.
// Returns "" when no interview carries a summary.
func renderBundles(interviews []*interview.Interview) string {
	var b strings.Builder
	n := 0
	for _, iv := range interviews {
		if iv.Summary == nil {
			continue
		}
		n++
		fmt.Fprintf(&b, "Interview %d (sentiment: %s)\n", n, iv.Summary.Sentiment)
		fmt.Fprintf(&b, "Summary: %s\n", iv.Summary.Summary)
		if len(iv.Summary.KeyThemes) > 0 {
			fmt.Fprintf(&b, "Themes: %s\n", strings.Join(iv.Summary.KeyThemes, ", "))
		}
		if len(iv.Summary.SpecificPraise) > 0 {
			fmt.Fprintf(&b, "Praise: %s\n", strings.Join(iv.Summary.SpecificPraise, "; "))
		}
		if len(iv.Summary.AreasForImprovement) > 0 {
			fmt.Fprintf(&b, "To improve: %s\n", strings.Join(iv.Summary.AreasForImprovement, "; "))
		}
		b.WriteString("\n")
	}
	if n == 0 {
		return ""
	}
	return b.String()
}
