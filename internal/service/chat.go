package service

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/stgmed/assistant/internal/bridge"
	"github.com/stgmed/assistant/internal/domain"
	"github.com/stgmed/assistant/pkg/log"
)

// maxQuestionLen matches the UI contract for POST /api/search.
const maxQuestionLen = 1000

// ragResponse is the answer generator's stdout shape.
type ragResponse struct {
	Answer  string          `json:"answer"`
	Sources []domain.Source `json:"sources"`
}

// Ask runs one question/answer cycle: persist the user turn, generate an
// answer, persist the assistant turn with its citations.
//
// The user message is kept even when generation fails; it records what was
// asked. No placeholder assistant message is ever written.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (*domain.ChatResponse, error) {
	if question == "" {
		return nil, &domain.ValidationError{Field: "question", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(question) > maxQuestionLen {
		return nil, &domain.ValidationError{Field: "question", Reason: fmt.Sprintf("must be at most %d characters", maxQuestionLen)}
	}

	if _, err := s.store.AppendMessage(ctx, sessionID, domain.RoleUser, question, nil); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	raw, err := s.bridge.Invoke(ctx, bridge.UnitRAG, question)
	if err != nil {
		log.Error("answer generation failed", err)
		return nil, &domain.UpstreamError{Op: "answer generation", Err: err}
	}

	var resp ragResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.UpstreamError{Op: "answer generation", Err: fmt.Errorf("unexpected response shape: %w", err)}
	}
	if resp.Answer == "" {
		return nil, &domain.UpstreamError{Op: "answer generation", Err: fmt.Errorf("empty answer")}
	}
	if resp.Sources == nil {
		resp.Sources = []domain.Source{}
	}

	if _, err := s.store.AppendMessage(ctx, sessionID, domain.RoleAssistant, resp.Answer, resp.Sources); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	return &domain.ChatResponse{
		Answer:    resp.Answer,
		Sources:   resp.Sources,
		SessionID: sessionID,
	}, nil
}

// History returns the session's messages in order. Unknown sessions yield
// an empty list.
func (s *Service) History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	messages, err := s.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}
