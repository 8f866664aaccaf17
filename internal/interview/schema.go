package interview

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/parley/parley/internal/language"
)

// InterviewSchema represents the interviews table
type InterviewSchema struct {
	bun.BaseModel `bun:"table:interviews,alias:i"`

	UUID        uuid.UUID  `bun:"uuid,pk,type:uuid" json:"uuid"`
	Token       string     `bun:"unique_id,notnull,unique" json:"unique_id"`
	Status      string     `bun:"status,notnull" json:"status"`
	StartedAt   time.Time  `bun:"started_at,notnull" json:"started_at"`
	CompletedAt *time.Time `bun:"completed_at,nullzero" json:"completed_at,omitempty"`

	// Language tracking
	DetectedLanguage *string `bun:"detected_language,nullzero" json:"detected_language,omitempty"`
	LanguageSwitches *int    `bun:"language_switches,nullzero" json:"language_switches,omitempty"`

	// Generated summary fields, all written together by SaveSummary
	Summary             *string    `bun:"summary,nullzero" json:"summary,omitempty"`
	KeyThemes           []string   `bun:"key_themes,type:jsonb,nullzero" json:"key_themes,omitempty"`
	Sentiment           *string    `bun:"sentiment,nullzero" json:"sentiment,omitempty"`
	SpecificPraise      []string   `bun:"specific_praise,type:jsonb,nullzero" json:"specific_praise,omitempty"`
	AreasForImprovement []string   `bun:"areas_for_improvement,type:jsonb,nullzero" json:"areas_for_improvement,omitempty"`
	SummaryGeneratedAt  *time.Time `bun:"summary_generated_at,nullzero" json:"summary_generated_at,omitempty"`
}

// TurnSchema represents the messages table
type TurnSchema struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	UUID          uuid.UUID `bun:"uuid,pk,type:uuid" json:"uuid"`
	InterviewUUID uuid.UUID `bun:"interview_id,notnull,type:uuid" json:"interview_id"`
	Role          string    `bun:"role,notnull" json:"role"`
	Content       string    `bun:"content,notnull" json:"content"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Conversion functions from schema to models

func schemaToInterview(schema InterviewSchema) *Interview {
	iv := &Interview{
		UUID:        schema.UUID,
		Token:       schema.Token,
		Status:      Status(schema.Status),
		StartedAt:   schema.StartedAt,
		CompletedAt: schema.CompletedAt,
	}

	if schema.DetectedLanguage != nil {
		code := language.Code(*schema.DetectedLanguage)
		iv.DetectedLanguage = &code
	}
	iv.LanguageSwitches = schema.LanguageSwitches

	// Summary fields are only ever written as a whole bundle; the generated
	// timestamp is the presence marker.
	if schema.SummaryGeneratedAt != nil && schema.Summary != nil && schema.Sentiment != nil {
		iv.Summary = &SummaryBundle{
			Summary:             *schema.Summary,
			KeyThemes:           schema.KeyThemes,
			Sentiment:           Sentiment(*schema.Sentiment),
			SpecificPraise:      schema.SpecificPraise,
			AreasForImprovement: schema.AreasForImprovement,
			GeneratedAt:         *schema.SummaryGeneratedAt,
		}
	}

	return iv
}

func interviewToSchema(iv *Interview) InterviewSchema {
	schema := InterviewSchema{
		UUID:        iv.UUID,
		Token:       iv.Token,
		Status:      string(iv.Status),
		StartedAt:   iv.StartedAt,
		CompletedAt: iv.CompletedAt,
	}

	if iv.DetectedLanguage != nil {
		code := string(*iv.DetectedLanguage)
		schema.DetectedLanguage = &code
	}
	schema.LanguageSwitches = iv.LanguageSwitches

	if iv.Summary != nil {
		schema.Summary = &iv.Summary.Summary
		schema.KeyThemes = iv.Summary.KeyThemes
		sentiment := string(iv.Summary.Sentiment)
		schema.Sentiment = &sentiment
		schema.SpecificPraise = iv.Summary.SpecificPraise
		schema.AreasForImprovement = iv.Summary.AreasForImprovement
		schema.SummaryGeneratedAt = &iv.Summary.GeneratedAt
	}

	return schema
}

func schemaToTurn(schema TurnSchema) Turn {
	return Turn{
		UUID:          schema.UUID,
		InterviewUUID: schema.InterviewUUID,
		Role:          Role(schema.Role),
		Content:       schema.Content,
		CreatedAt:     schema.CreatedAt,
	}
}

func turnToSchema(turn *Turn) TurnSchema {
	return TurnSchema{
		UUID:          turn.UUID,
		InterviewUUID: turn.InterviewUUID,
		Role:          string(turn.Role),
		Content:       turn.Content,
		CreatedAt:     turn.CreatedAt,
	}
}

// Database indexes
var InterviewIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_interviews_unique_id ON interviews(unique_id)",
	"CREATE INDEX IF NOT EXISTS idx_interviews_status ON interviews(status)",
	"CREATE INDEX IF NOT EXISTS idx_interviews_started_at ON interviews(started_at)",
}

var TurnIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_messages_interview_id ON messages(interview_id)",
	"CREATE INDEX IF NOT EXISTS idx_messages_interview_created ON messages(interview_id, created_at)",
}
