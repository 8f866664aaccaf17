package interview

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/parley/parley/internal/language"
	"github.com/parley/parley/internal/llm"
)

// Store defines the persistence interface for interviews and their transcripts
type Store interface {
	// Interview record operations
	CreateInterview(ctx context.Context, iv *Interview) error
	GetInterviewByToken(ctx context.Context, token string) (*Interview, error)
	TokenExists(ctx context.Context, token string) (bool, error)
	ListCompletedInterviews(ctx context.Context) ([]*Interview, error)
	CompleteInterview(ctx context.Context, interviewUUID uuid.UUID, completedAt time.Time) error
	UpdateLanguage(ctx context.Context, interviewUUID uuid.UUID, code language.Code, switches int) error
	// SaveSummary writes the whole bundle in one atomic update. The record is
	// never left with a partial bundle.
	SaveSummary(ctx context.Context, interviewUUID uuid.UUID, bundle *SummaryBundle) error

	// Transcript operations. Turns are append-only and listed in creation order.
	AppendTurn(ctx context.Context, turn *Turn) error
	ListTurns(ctx context.Context, interviewUUID uuid.UUID) ([]Turn, error)
}

// Manager is the interview service surface consumed by the HTTP handlers
type Manager interface {
	CreateInterview(ctx context.Context) (*Interview, error)
	GetByToken(ctx context.Context, token string) (*Interview, error)
	ListCompleted(ctx context.Context) ([]*Interview, error)
	Transcript(ctx context.Context, token string) ([]Turn, error)
	Complete(ctx context.Context, token string) error
	SubmitTurn(ctx context.Context, token, text string, onChunk llm.StreamFunc) (*TurnResult, error)
}
