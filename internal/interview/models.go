package interview

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parley/parley/internal/language"
)

// Status tracks the one-way interview lifecycle.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Role identifies the sender of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var validRoles = map[string]Role{
	string(RoleUser):      RoleUser,
	string(RoleAssistant): RoleAssistant,
}

func (r *Role) UnmarshalJSON(b []byte) error {
	str := strings.Trim(string(b), "\"")

	value, ok := validRoles[str]
	if !ok {
		return fmt.Errorf("invalid Role: %v", str)
	}

	*r = value
	return nil
}

func (r Role) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", r)), nil
}

// Sentiment is the three-way classification produced by summary generation.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentMixed    Sentiment = "mixed"
	SentimentNegative Sentiment = "negative"
)

// Valid reports whether s is one of the three allowed values.
func (s Sentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentMixed || s == SentimentNegative
}

// Interview is one feedback conversation, identified externally by its short
// token and tracked from creation to completion.
type Interview struct {
	// The unique identifier of the interview record
	UUID uuid.UUID `json:"uuid"`
	// The short URL-safe token shared with the client
	Token string `json:"token"`
	// Lifecycle status: in_progress or completed, transition is one-way
	Status Status `json:"status"`
	// When the interview was created
	StartedAt time.Time `json:"started_at"`
	// Set exactly when status becomes completed
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Language of the most recent user turn, absent until first detection
	DetectedLanguage *language.Code `json:"detected_language,omitempty"`
	// Number of times the detected language changed mid-interview
	LanguageSwitches *int `json:"language_switches,omitempty"`
	// Generated insight fields, present all together or not at all
	Summary *SummaryBundle `json:"summary,omitempty"`
}

// SummaryBundle is the derived insight record written by summary generation.
// All fields are written in a single update; the record is either whole or
// absent.
type SummaryBundle struct {
	Summary             string    `json:"summary"`
	KeyThemes           []string  `json:"key_themes"`
	Sentiment           Sentiment `json:"sentiment"`
	SpecificPraise      []string  `json:"specific_praise"`
	AreasForImprovement []string  `json:"areas_for_improvement"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// Turn is one message within an interview transcript. Turns are immutable
// once created and always retrieved in creation order.
type Turn struct {
	UUID          uuid.UUID `json:"uuid"`
	InterviewUUID uuid.UUID `json:"interview_uuid"`
	Role          Role      `json:"role"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmitTurnRequest is the body of a turn submission.
type SubmitTurnRequest struct {
	Content string `json:"content"`
}

// TurnResult is the outcome of one completed exchange.
type TurnResult struct {
	// The full assistant reply, identical to the concatenated stream
	Reply string `json:"reply"`
	// Language detected for the submitted user turn
	Language language.Code `json:"language"`
	// Whether this exchange auto-completed the interview
	Completed bool `json:"completed"`
}
