package interview

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/parley/parley/internal/language"
)

// PostgresStore implements Store with PostgreSQL storage
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

// CreateInterview inserts a new interview record
func (s *PostgresStore) CreateInterview(ctx context.Context, iv *Interview) error {
	schema := interviewToSchema(iv)

	_, err := s.db.NewInsert().
		Model(&schema).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create interview: %w", err)
	}

	return nil
}

// GetInterviewByToken retrieves an interview by its short token
func (s *PostgresStore) GetInterviewByToken(ctx context.Context, token string) (*Interview, error) {
	var schema InterviewSchema
	err := s.db.NewSelect().
		Model(&schema).
		Where("unique_id = ?", token).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewNotFoundError(token)
		}
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}

	return schemaToInterview(schema), nil
}

// TokenExists reports whether a token is already assigned to an interview
func (s *PostgresStore) TokenExists(ctx context.Context, token string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*InterviewSchema)(nil)).
		Where("unique_id = ?", token).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check token existence: %w", err)
	}
	return exists, nil
}

// ListCompletedInterviews retrieves all interviews with status completed
func (s *PostgresStore) ListCompletedInterviews(ctx context.Context) ([]*Interview, error) {
	var schemas []InterviewSchema
	err := s.db.NewSelect().
		Model(&schemas).
		Where("status = ?", string(StatusCompleted)).
		Order("completed_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed interviews: %w", err)
	}

	interviews := make([]*Interview, len(schemas))
	for i, schema := range schemas {
		interviews[i] = schemaToInterview(schema)
	}

	return interviews, nil
}

// CompleteInterview transitions an interview to completed and stamps the
// completion time. The transition is one-way: completing an already completed
// interview is a no-op.
func (s *PostgresStore) CompleteInterview(ctx context.Context, interviewUUID uuid.UUID, completedAt time.Time) error {
	result, err := s.db.NewUpdate().
		Model((*InterviewSchema)(nil)).
		Where("uuid = ?", interviewUUID).
		Where("status = ?", string(StatusInProgress)).
		Set("status = ?", string(StatusCompleted)).
		Set("completed_at = ?", completedAt).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to complete interview: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		exists, err := s.db.NewSelect().
			Model((*InterviewSchema)(nil)).
			Where("uuid = ?", interviewUUID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to verify interview after completion: %w", err)
		}
		if !exists {
			return NewNotFoundError(interviewUUID.String())
		}
		// Already completed - the transition is idempotent.
	}

	return nil
}

// UpdateLanguage records the detected language and the switch counter
func (s *PostgresStore) UpdateLanguage(ctx context.Context, interviewUUID uuid.UUID, code language.Code, switches int) error {
	result, err := s.db.NewUpdate().
		Model((*InterviewSchema)(nil)).
		Where("uuid = ?", interviewUUID).
		Set("detected_language = ?", string(code)).
		Set("language_switches = ?", switches).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update language: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return NewNotFoundError(interviewUUID.String())
	}

	return nil
}

// SaveSummary writes all summary fields plus the generation timestamp in a
// single update. A failed generation never reaches this method, so the record
// either carries the whole bundle or none of it.
func (s *PostgresStore) SaveSummary(ctx context.Context, interviewUUID uuid.UUID, bundle *SummaryBundle) error {
	result, err := s.db.NewUpdate().
		Model((*InterviewSchema)(nil)).
		Where("uuid = ?", interviewUUID).
		Set("summary = ?", bundle.Summary).
		Set("key_themes = ?", jsonbValue(bundle.KeyThemes)).
		Set("sentiment = ?", string(bundle.Sentiment)).
		Set("specific_praise = ?", jsonbValue(bundle.SpecificPraise)).
		Set("areas_for_improvement = ?", jsonbValue(bundle.AreasForImprovement)).
		Set("summary_generated_at = ?", bundle.GeneratedAt).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return NewNotFoundError(interviewUUID.String())
	}

	return nil
}

// AppendTurn inserts one transcript turn
func (s *PostgresStore) AppendTurn(ctx context.Context, turn *Turn) error {
	schema := turnToSchema(turn)

	_, err := s.db.NewInsert().
		Model(&schema).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}

	return nil
}

// ListTurns retrieves the full transcript in creation order. The UUID tie
// break keeps listing deterministic when timestamps collide.
func (s *PostgresStore) ListTurns(ctx context.Context, interviewUUID uuid.UUID) ([]Turn, error) {
	var schemas []TurnSchema
	err := s.db.NewSelect().
		Model(&schemas).
		Where("interview_id = ?", interviewUUID).
		Order("created_at ASC", "uuid ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}

	turns := make([]Turn, len(schemas))
	for i, schema := range schemas {
		turns[i] = schemaToTurn(schema)
	}

	return turns, nil
}

// jsonbValue wraps a string slice so bun sends it as a jsonb parameter even
// in a raw Set expression.
func jsonbValue(values []string) interface{} {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}
