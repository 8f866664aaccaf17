// Package llm wraps the hosted language-model API behind a small interface so
// the interview, summary and insights services can be exercised without the
// real upstream.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Upstream failure kinds. Callers classify with errors.Is.
var (
	// ErrUnavailable indicates the model call failed or timed out.
	ErrUnavailable = errors.New("language model unavailable")
	// ErrMalformed indicates the model returned a result that does not match
	// the requested structure.
	ErrMalformed = errors.New("malformed language model result")
)

// Turn is one flattened transcript entry sent upstream. Content is always a
// single text string; any richer message representation must be flattened
// before it reaches this package.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// StreamFunc receives one incremental text fragment of a streamed reply.
// Returning an error aborts the stream.
type StreamFunc func(chunk string) error

// Client is the language-model surface the services depend on.
type Client interface {
	// StreamCompletion generates a conversational reply from the system
	// instructions and transcript-so-far, invoking onChunk for every text
	// fragment as it arrives. The full concatenated reply is returned once
	// the stream ends, so consumer and caller see the same token sequence.
	StreamCompletion(ctx context.Context, systemInstructions string, turns []Turn, onChunk StreamFunc) (string, error)

	// StructuredCompletion makes a single schema-constrained call and decodes
	// the result into out. The schema is enforced upstream (tool-call style)
	// rather than parsed out of free text.
	StructuredCompletion(ctx context.Context, systemInstructions, input string, schema *genai.Schema, out any) error
}

// Config carries the Gemini connection settings.
type Config struct {
	APIKey         string
	ChatModel      string
	AnalysisModel  string
	RequestTimeout time.Duration
}

// GeminiClient implements Client against the Gemini API.
type GeminiClient struct {
	client        *genai.Client
	chatModel     string
	analysisModel string
	timeout       time.Duration
	logger        *zap.Logger
}

// NewGeminiClient creates a Gemini-backed client.
func NewGeminiClient(ctx context.Context, cfg Config, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.ChatModel == "" || cfg.AnalysisModel == "" {
		return nil, fmt.Errorf("chat and analysis model names are required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client:        client,
		chatModel:     cfg.ChatModel,
		analysisModel: cfg.AnalysisModel,
		timeout:       cfg.RequestTimeout,
		logger:        logger,
	}, nil
}

// StreamCompletion streams a conversational reply for the transcript-so-far.
func (g *GeminiClient) StreamCompletion(ctx context.Context, systemInstructions string, turns []Turn, onChunk StreamFunc) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstructions, genai.RoleUser),
	}

	var reply strings.Builder
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.chatModel, contentsFromTurns(turns), config) {
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		reply.WriteString(chunk)
		if onChunk != nil {
			if cbErr := onChunk(chunk); cbErr != nil {
				return "", fmt.Errorf("stream consumer aborted: %w", cbErr)
			}
		}
	}

	return reply.String(), nil
}

// StructuredCompletion makes one schema-constrained call and decodes the JSON
// result into out.
func (g *GeminiClient) StructuredCompletion(ctx context.Context, systemInstructions, input string, schema *genai.Schema, out any) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstructions, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	}

	contents := []*genai.Content{genai.NewContentFromText(input, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.analysisModel, contents, config)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	text := resp.Text()
	if text == "" {
		return fmt.Errorf("%w: empty structured response", ErrMalformed)
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		g.logger.Warn("structured response is not valid JSON",
			zap.String("model", g.analysisModel),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return nil
}

// contentsFromTurns converts transcript turns into the genai content shape.
// Assistant turns map to the model role; everything else is sent as user.
func contentsFromTurns(turns []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	return contents
}
