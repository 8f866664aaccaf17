package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parley/parley/internal/language"
	"github.com/parley/parley/internal/llm"
)

// tokenRetries bounds the collision-check-and-retry loop in CreateInterview.
const tokenRetries = 3

// Service implements the Manager interface. It owns the interview lifecycle
// state machine and the per-turn conversation protocol.
type Service struct {
	store        Store
	llm          llm.Client
	minUserTurns int
	logger       *zap.Logger
}

// NewService creates a new interview service
func NewService(store Store, llmClient llm.Client, minUserTurns int, logger *zap.Logger) *Service {
	if minUserTurns <= 0 {
		minUserTurns = 6
	}
	return &Service{
		store:        store,
		llm:          llmClient,
		minUserTurns: minUserTurns,
		logger:       logger,
	}
}

// CreateInterview creates a new in-progress interview with a fresh token
func (s *Service) CreateInterview(ctx context.Context) (*Interview, error) {
	var token string
	for attempt := 0; attempt < tokenRetries; attempt++ {
		candidate := newToken()
		exists, err := s.store.TokenExists(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to check token: %w", err)
		}
		if !exists {
			token = candidate
			break
		}
		s.logger.Warn("interview token collision, retrying", zap.String("token", candidate))
	}
	if token == "" {
		return nil, fmt.Errorf("failed to allocate a unique interview token after %d attempts", tokenRetries)
	}

	iv := &Interview{
		UUID:      uuid.New(),
		Token:     token,
		Status:    StatusInProgress,
		StartedAt: time.Now(),
	}

	if err := s.store.CreateInterview(ctx, iv); err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}

	s.logger.Info("interview created", zap.String("token", iv.Token))
	return iv, nil
}

// GetByToken retrieves an interview by its short token
func (s *Service) GetByToken(ctx context.Context, token string) (*Interview, error) {
	return s.store.GetInterviewByToken(ctx, token)
}

// ListCompleted retrieves all completed interviews
func (s *Service) ListCompleted(ctx context.Context) ([]*Interview, error) {
	return s.store.ListCompletedInterviews(ctx)
}

// Transcript retrieves the ordered transcript for an interview
func (s *Service) Transcript(ctx context.Context, token string) ([]Turn, error) {
	iv, err := s.store.GetInterviewByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.store.ListTurns(ctx, iv.UUID)
}

// Complete is the explicit user-initiated end of an interview
func (s *Service) Complete(ctx context.Context, token string) error {
	iv, err := s.store.GetInterviewByToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.store.CompleteInterview(ctx, iv.UUID, time.Now()); err != nil {
		return err
	}

	s.logger.Info("interview completed", zap.String("token", token), zap.String("trigger", "explicit"))
	return nil
}

// SubmitTurn runs one full exchange: validate, track language, persist the
// user turn, stream the assistant reply, persist it, and evaluate the
// end-of-interview heuristic.
//
// onChunk receives each reply fragment as it arrives; the returned
// TurnResult carries the same text concatenated. If the model call fails the
// user turn stays persisted and no assistant turn is written.
func (s *Service) SubmitTurn(ctx context.Context, token, text string, onChunk llm.StreamFunc) (*TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewInvalidInputError(token, "turn text must not be empty")
	}

	iv, err := s.store.GetInterviewByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if iv.Status == StatusCompleted {
		return nil, NewCompletedError(token)
	}

	code := s.trackLanguage(ctx, iv, text)

	userTurn := &Turn{
		UUID:          uuid.New(),
		InterviewUUID: iv.UUID,
		Role:          RoleUser,
		Content:       text,
		CreatedAt:     time.Now(),
	}
	if err := s.store.AppendTurn(ctx, userTurn); err != nil {
		return nil, fmt.Errorf("failed to persist user turn: %w", err)
	}

	// Transcript-so-far including the turn just persisted.
	turns, err := s.store.ListTurns(ctx, iv.UUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	reply, err := s.llm.StreamCompletion(ctx, language.Instructions(code), flattenTurns(turns), onChunk)
	if err != nil {
		return nil, NewUpstreamError(token, err)
	}

	result := &TurnResult{
		Reply:    reply,
		Language: code,
	}

	assistantTurn := &Turn{
		UUID:          uuid.New(),
		InterviewUUID: iv.UUID,
		Role:          RoleAssistant,
		Content:       reply,
		CreatedAt:     time.Now(),
	}
	if err := s.store.AppendTurn(ctx, assistantTurn); err != nil {
		// The reply was already streamed to the caller; it just won't
		// survive a reload. Accepted gap.
		s.logger.Error("failed to persist assistant turn after successful stream",
			zap.String("token", token),
			zap.Error(err))
		return result, nil
	}

	if s.shouldComplete(turns, reply, code) {
		if err := s.store.CompleteInterview(ctx, iv.UUID, time.Now()); err != nil {
			s.logger.Error("failed to auto-complete interview",
				zap.String("token", token),
				zap.Error(err))
		} else {
			result.Completed = true
			s.logger.Info("interview completed", zap.String("token", token), zap.String("trigger", "heuristic"))
		}
	}

	return result, nil
}

// trackLanguage detects the turn language and patches the interview record
// when it is the first detection or a switch. Detection failures never block
// the turn; the store error is logged and the detected code still used.
func (s *Service) trackLanguage(ctx context.Context, iv *Interview, text string) language.Code {
	code := language.Detect(text)

	switch {
	case iv.DetectedLanguage == nil:
		if err := s.store.UpdateLanguage(ctx, iv.UUID, code, 0); err != nil {
			s.logger.Warn("failed to record initial language", zap.String("token", iv.Token), zap.Error(err))
		}
	case *iv.DetectedLanguage != code:
		switches := 1
		if iv.LanguageSwitches != nil {
			switches = *iv.LanguageSwitches + 1
		}
		if err := s.store.UpdateLanguage(ctx, iv.UUID, code, switches); err != nil {
			s.logger.Warn("failed to record language switch", zap.String("token", iv.Token), zap.Error(err))
		}
	}

	return code
}

// shouldComplete evaluates the end-of-interview heuristic: the exchange floor
// has been reached and the latest assistant reply contains a closing cue.
// turns is the transcript up to and including the current user turn.
func (s *Service) shouldComplete(turns []Turn, reply string, code language.Code) bool {
	userTurns := 0
	for _, t := range turns {
		if t.Role == RoleUser {
			userTurns++
		}
	}
	return userTurns >= s.minUserTurns && language.ContainsClosingCue(reply, code)
}

// flattenTurns converts transcript turns to the uniform role/content shape
// sent upstream.
func flattenTurns(turns []Turn) []llm.Turn {
	flat := make([]llm.Turn, len(turns))
	for i, t := range turns {
		flat[i] = llm.Turn{
			Role:    string(t.Role),
			Content: t.Content,
		}
	}
	return flat
}
