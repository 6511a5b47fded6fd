package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stgmed/assistant/internal/bridge"
	"github.com/stgmed/assistant/internal/domain"
	"github.com/stgmed/assistant/internal/store"
)

// stubInvoker scripts bridge responses per unit invocation.
type stubInvoker struct {
	fn    func(unit string, args []string) (json.RawMessage, error)
	calls [][]string
}

func (s *stubInvoker) Invoke(_ context.Context, unit string, args ...string) (json.RawMessage, error) {
	s.calls = append(s.calls, append([]string{unit}, args...))
	return s.fn(unit, args)
}

func newTestService(fn func(unit string, args []string) (json.RawMessage, error)) (*Service, store.Store, *stubInvoker) {
	st := store.NewMemoryStore()
	inv := &stubInvoker{fn: fn}
	return New(st, inv), st, inv
}

func TestAskHappyPath(t *testing.T) {
	svc, st, inv := newTestService(func(unit string, args []string) (json.RawMessage, error) {
		return json.RawMessage(`{
			"answer": "First line treatment is Artemether-lumefantrine.",
			"sources": [{"id": "stg-112", "title": "Malaria", "content": "...", "page": "112"}]
		}`), nil
	})

	resp, err := svc.Ask(context.Background(), "s1", "How do I treat malaria?")
	require.NoError(t, err)
	assert.Equal(t, "First line treatment is Artemether-lumefantrine.", resp.Answer)
	assert.Equal(t, "s1", resp.SessionID)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "stg-112", resp.Sources[0].ID)

	require.Len(t, inv.calls, 1)
	assert.Equal(t, []string{bridge.UnitRAG, "How do I treat malaria?"}, inv.calls[0])

	messages, err := st.ListMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, domain.RoleUser, messages[0].Role)
	assert.Equal(t, "How do I treat malaria?", messages[0].Content)
	assert.Nil(t, messages[0].Sources)
	assert.Equal(t, domain.RoleAssistant, messages[1].Role)
	require.Len(t, messages[1].Sources, 1)
}

func TestAskValidation(t *testing.T) {
	svc, st, inv := newTestService(func(unit string, args []string) (json.RawMessage, error) {
		t.Fatal("bridge must not be invoked on validation failure")
		return nil, nil
	})

	tests := []struct {
		name     string
		question string
	}{
		{"empty", ""},
		{"too long", strings.Repeat("q", maxQuestionLen+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ask(context.Background(), "s1", tt.question)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "question", ve.Field)
		})
	}

	assert.Empty(t, inv.calls)
	messages, err := st.ListMessages(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, messages, "rejected questions must not be persisted")
}

func TestAskQuestionAtLimitAccepted(t *testing.T) {
	svc, _, _ := newTestService(func(unit string, args []string) (json.RawMessage, error) {
		return json.RawMessage(`{"answer": "ok", "sources": []}`), nil
	})

	_, err := svc.Ask(context.Background(), "s1", strings.Repeat("q", maxQuestionLen))
	require.NoError(t, err)
}

func TestAskUpstreamFailureKeepsUserMessage(t *testing.T) {
	bridgeErr := &bridge.Error{
		Kind:        bridge.KindNonZeroExit,
		Unit:        bridge.UnitRAG,
		ExitCode:    1,
		Diagnostics: "model unavailable",
	}
	svc, st, _ := newTestService(func(unit string, args []string) (json.RawMessage, error) {
		return nil, bridgeErr
	})

	_, err := svc.Ask(context.Background(), "s1", "How do I treat malaria?")

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	var wrapped *bridge.Error
	require.ErrorAs(t, err, &wrapped)
	assert.Equal(t, 1, wrapped.ExitCode)
	assert.Equal(t, "model unavailable", wrapped.Diagnostics)

	// The user turn is kept; no assistant turn is created.
	messages, err := st.ListMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, domain.RoleUser, messages[0].Role)
}

func TestAskMalformedAnswerShape(t *testing.T) {
	svc, st, _ := newTestService(func(unit string, args []string) (json.RawMessage, error) {
		return json.RawMessage(`{"sources": []}`), nil
	})

	_, err := svc.Ask(context.Background(), "s1", "question")
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)

	messages, err := st.ListMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 1, "only the user turn is stored")
}

func TestHistoryEmptyForUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(func(unit string, args []string) (json.RawMessage, error) {
		return nil, nil
	})

	messages, err := svc.History(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, messages)
}
