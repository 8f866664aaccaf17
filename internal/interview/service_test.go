package interview

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/parley/parley/internal/language"
	"github.com/parley/parley/internal/llm"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	mu         sync.Mutex
	interviews map[uuid.UUID]*Interview
	turns      map[uuid.UUID][]Turn

	failAppendAssistant bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		interviews: make(map[uuid.UUID]*Interview),
		turns:      make(map[uuid.UUID][]Turn),
	}
}

func (s *fakeStore) CreateInterview(_ context.Context, iv *Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *iv
	s.interviews[iv.UUID] = &cp
	return nil
}

func (s *fakeStore) GetInterviewByToken(_ context.Context, token string) (*Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, iv := range s.interviews {
		if iv.Token == token {
			cp := *iv
			return &cp, nil
		}
	}
	return nil, NewNotFoundError(token)
}

func (s *fakeStore) TokenExists(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, iv := range s.interviews {
		if iv.Token == token {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ListCompletedInterviews(_ context.Context) ([]*Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Interview
	for _, iv := range s.interviews {
		if iv.Status == StatusCompleted {
			cp := *iv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Token < out[j].Token
	})
	return out, nil
}

func (s *fakeStore) CompleteInterview(_ context.Context, id uuid.UUID, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok {
		return NewNotFoundError(id.String())
	}
	if iv.Status == StatusCompleted {
		return nil
	}
	iv.Status = StatusCompleted
	iv.CompletedAt = &completedAt
	return nil
}

func (s *fakeStore) UpdateLanguage(_ context.Context, id uuid.UUID, code language.Code, switches int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok {
		return NewNotFoundError(id.String())
	}
	iv.DetectedLanguage = &code
	iv.LanguageSwitches = &switches
	return nil
}

func (s *fakeStore) SaveSummary(_ context.Context, id uuid.UUID, bundle *SummaryBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok {
		return NewNotFoundError(id.String())
	}
	cp := *bundle
	iv.Summary = &cp
	return nil
}

func (s *fakeStore) AppendTurn(_ context.Context, turn *Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppendAssistant && turn.Role == RoleAssistant {
		return errors.New("write refused")
	}
	s.turns[turn.InterviewUUID] = append(s.turns[turn.InterviewUUID], *turn)
	return nil
}

func (s *fakeStore) ListTurns(_ context.Context, id uuid.UUID) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.turns[id]...), nil
}

// fakeLLM replies with a fixed string, streamed in two chunks.
type fakeLLM struct {
	reply string
	err   error

	lastInstructions string
	lastTurns        []llm.Turn
}

func (f *fakeLLM) StreamCompletion(_ context.Context, systemInstructions string, turns []llm.Turn, onChunk llm.StreamFunc) (string, error) {
	f.lastInstructions = systemInstructions
	f.lastTurns = turns
	if f.err != nil {
		return "", f.err
	}
	half := len(f.reply) / 2
	for _, chunk := range []string{f.reply[:half], f.reply[half:]} {
		if chunk == "" {
			continue
		}
		if err := onChunk(chunk); err != nil {
			return "", err
		}
	}
	return f.reply, nil
}

func (f *fakeLLM) StructuredCompletion(context.Context, string, string, *genai.Schema, any) error {
	return errors.New("not implemented")
}

func newTestService(store *fakeStore, client llm.Client) *Service {
	return NewService(store, client, 6, zap.NewNop())
}

func discardChunks(string) error { return nil }

func TestCreateInterview(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLLM{reply: "ok"})

	iv, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, iv.Status)
	assert.Len(t, iv.Token, 22)
	assert.Nil(t, iv.CompletedAt)
	assert.Nil(t, iv.DetectedLanguage)

	other, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, iv.Token, other.Token)
}

func TestSubmitTurnPersistsBothSides(t *testing.T) {
	store := newFakeStore()
	client := &fakeLLM{reply: "Could you tell me more about that?"}
	svc := newTestService(store, client)

	iv, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)

	var streamed strings.Builder
	result, err := svc.SubmitTurn(context.Background(), iv.Token, "The consultation went really well.", func(chunk string) error {
		streamed.WriteString(chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, client.reply, result.Reply)
	assert.Equal(t, client.reply, streamed.String())
	assert.Equal(t, language.English, result.Language)
	assert.False(t, result.Completed)

	turns, err := svc.Transcript(context.Background(), iv.Token)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "The consultation went really well.", turns[0].Content)
	assert.Equal(t, RoleAssistant, turns[1].Role)
	assert.Equal(t, client.reply, turns[1].Content)
}

func TestSubmitTurnTranscriptOrder(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLLM{reply: "And then?"})

	iv, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := svc.SubmitTurn(context.Background(), iv.Token, fmt.Sprintf("answer number %d", i), discardChunks)
		require.NoError(t, err)
	}

	turns, err := svc.Transcript(context.Background(), iv.Token)
	require.NoError(t, err)
	require.Len(t, turns, 8)
	for i, turn := range turns {
		if i%2 == 0 {
			assert.Equal(t, RoleUser, turn.Role)
			assert.Equal(t, fmt.Sprintf("answer number %d", i/2), turn.Content)
		} else {
			assert.Equal(t, RoleAssistant, turn.Role)
		}
	}
}

func TestSubmitTurnRejectsEmptyInput(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLLM{reply: "ok"})

	iv, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)

	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := svc.SubmitTurn(context.Background(), iv.Token, input, discardChunks)
		require.Error(t, err)
		assert.True(t, IsKind(err, ErrorTypeInvalidInput))
	}

	turns, err := svc.Transcript(context.Background(), iv.Token)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSubmitTurnUnknownToken(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeLLM{reply: "ok"})

	_, err := svc.SubmitTurn(context.Background(), "no-such-token", "hello", discardChunks)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrorTypeNotFound))
}

func TestSubmitTurnCompletedInterviewConflicts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLLM{reply: "ok"})

	iv, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.Complete(context.Background(), iv.Token))

	_, err = svc.SubmitTurn(context.Background(), iv.Token, "one more thing", discardChunks)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrorTypeCompleted))
}

func TestSubmitTurnUpstreamFailureKeepsUserTurn(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLLM{err: llm.ErrUnavailable})

	iv, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)

	_, err = svc.SubmitTurn(context.Background(), iv.Token, "is anyone there", discardChunks)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrorTypeUpstreamUnavailable))

	// The user turn survives so a retry does not lose input.
	turns, err := svc.Transcript(context.Background(), iv.Token)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, RoleUser, turns[0].Role)

	got, err := svc.GetByToken(context.Background(), iv.Token)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)
}

func TestSubmitTurnAssistantPersistFailure(t *testing.T) {
	store := newFakeStore()
	store.failAppendAssistant = true
	svc := newTestService(store, &fakeLLM{reply: "noted, thanks"})

	iv, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)

	result, err := svc.SubmitTurn(context.Background(), iv.Token, "all good", discardChunks)
	require.NoError(t, err)
	assert.Equal(t, "noted, thanks", result.Reply)
	assert.False(t, result.Completed)

	turns, err := svc.Transcript(context.Background(), iv.Token)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, RoleUser, turns[0].Role)
}

func TestLanguageTracking(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLLM{reply: "go on"})

	iv, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)

	_, err = svc.SubmitTurn(context.Background(), iv.Token, "It was a very helpful session.", discardChunks)
	require.NoError(t, err)

	got, err := svc.GetByToken(context.Background(), iv.Token)
	require.NoError(t, err)
	require.NotNil(t, got.DetectedLanguage)
	assert.Equal(t, language.English, *got.DetectedLanguage)
	require.NotNil(t, got.LanguageSwitches)
	assert.Equal(t, 0, *got.LanguageSwitches)

	result, err := svc.SubmitTurn(context.Background(), iv.Token, "הפגישה היתה מצוינת ועזרה לי מאוד", discardChunks)
	require.NoError(t, err)
	assert.Equal(t, language.Hebrew, result.Language)

	got, err = svc.GetByToken(context.Background(), iv.Token)
	require.NoError(t, err)
	assert.Equal(t, language.Hebrew, *got.DetectedLanguage)
	assert.Equal(t, 1, *got.LanguageSwitches)

	_, err = svc.SubmitTurn(context.Background(), iv.Token, "עוד משוב חיובי על התהליך", discardChunks)
	require.NoError(t, err)
	got, err = svc.GetByToken(context.Background(), iv.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, *got.LanguageSwitches)
}

func TestHeuristicCompletion(t *testing.T) {
	store := newFakeStore()
	client := &fakeLLM{reply: "Great, keep going."}
	svc := newTestService(store, client)

	iv, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)

	// Five plain exchanges: no closing cue and under the floor.
	for i := 0; i < 5; i++ {
		result, err := svc.SubmitTurn(context.Background(), iv.Token, fmt.Sprintf("some detail %d", i), discardChunks)
		require.NoError(t, err)
		assert.False(t, result.Completed)
	}

	// Sixth user turn plus a closing cue in the reply tips the heuristic.
	client.reply = "Thank you so much for sharing all of this."
	result, err := svc.SubmitTurn(context.Background(), iv.Token, "that covers everything", discardChunks)
	require.NoError(t, err)
	assert.True(t, result.Completed)

	got, err := svc.GetByToken(context.Background(), iv.Token)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestHeuristicNeedsBothConditions(t *testing.T) {
	store := newFakeStore()
	client := &fakeLLM{reply: "Thank you, tell me more."}
	svc := newTestService(store, client)

	iv, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)

	// Closing cue in every reply, but only three user turns.
	for i := 0; i < 3; i++ {
		result, err := svc.SubmitTurn(context.Background(), iv.Token, fmt.Sprintf("short answer %d", i), discardChunks)
		require.NoError(t, err)
		assert.False(t, result.Completed)
	}

	got, err := svc.GetByToken(context.Background(), iv.Token)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.Nil(t, got.CompletedAt)
}

func TestHeuristicHebrewCue(t *testing.T) {
	store := newFakeStore()
	client := &fakeLLM{reply: "מעניין, ספר לי עוד"}
	svc := newTestService(store, client)

	iv, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := svc.SubmitTurn(context.Background(), iv.Token, "המפגש עזר לי להבין את המצב", discardChunks)
		require.NoError(t, err)
	}

	client.reply = "תודה רבה על השיתוף, זה עזר מאוד"
	result, err := svc.SubmitTurn(context.Background(), iv.Token, "זה הכל מבחינתי", discardChunks)
	require.NoError(t, err)
	assert.True(t, result.Completed)
}

func TestExplicitCompleteIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLLM{reply: "ok"})

	iv, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.Complete(context.Background(), iv.Token))
	got, err := svc.GetByToken(context.Background(), iv.Token)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	first := *got.CompletedAt

	require.NoError(t, svc.Complete(context.Background(), iv.Token))
	got, err = svc.GetByToken(context.Background(), iv.Token)
	require.NoError(t, err)
	assert.Equal(t, first, *got.CompletedAt)
}

func TestInstructionsFollowDetectedLanguage(t *testing.T) {
	store := newFakeStore()
	client := &fakeLLM{reply: "בסדר"}
	svc := newTestService(store, client)

	iv, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)

	_, err = svc.SubmitTurn(context.Background(), iv.Token, "הייעוץ היה מקצועי מאוד", discardChunks)
	require.NoError(t, err)
	assert.Equal(t, language.Instructions(language.Hebrew), client.lastInstructions)
	require.Len(t, client.lastTurns, 1)
	assert.Equal(t, "user", client.lastTurns[0].Role)
}

func TestListCompleted(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeLLM{reply: "ok"})

	a, err := svc.CreateInterview(context.Background())
	require.NoError(t, err)
	_, err = svc.CreateInterview(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.Complete(context.Background(), a.Token))

	completed, err := svc.ListCompleted(context.Background())
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, a.Token, completed[0].Token)
}
