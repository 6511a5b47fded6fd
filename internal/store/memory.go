package store

import (
	"context"
	"sync"
	"time"

	"github.com/stgmed/assistant/internal/domain"
)

// MemoryStore is the default Store: everything lives in process memory and
// is gone on restart.
//
// One mutex guards the whole store. Case studies are held once and indexed
// twice (session list and identity map share the same record), so an update
// is visible through both views in a single critical section. All returns
// are copies; callers never see a record mid-update.
type MemoryStore struct {
	mu sync.RWMutex

	messages map[string][]*domain.ChatMessage

	casesBySession map[string][]*domain.CaseStudy
	caseByID       map[int64]*domain.CaseStudy

	nextMessageID   int64
	nextCaseStudyID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages:        make(map[string][]*domain.ChatMessage),
		casesBySession:  make(map[string][]*domain.CaseStudy),
		caseByID:        make(map[int64]*domain.CaseStudy),
		nextMessageID:   1,
		nextCaseStudyID: 1,
	}
}

func (s *MemoryStore) AppendMessage(_ context.Context, sessionID string, role domain.Role, content string, sources []domain.Source) (*domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := &domain.ChatMessage{
		ID:        s.nextMessageID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Sources:   cloneSources(sources),
		CreatedAt: time.Now().UTC(),
	}
	s.nextMessageID++
	s.messages[sessionID] = append(s.messages[sessionID], msg)

	return cloneMessage(msg), nil
}

func (s *MemoryStore) ListMessages(_ context.Context, sessionID string) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.messages[sessionID]
	out := make([]domain.ChatMessage, 0, len(list))
	for _, msg := range list {
		out = append(out, *cloneMessage(msg))
	}
	return out, nil
}

func (s *MemoryStore) CreateCaseStudy(_ context.Context, draft domain.CaseStudyDraft) (*domain.CaseStudy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs := &domain.CaseStudy{
		ID:               s.nextCaseStudyID,
		SessionID:        draft.SessionID,
		Illness:          draft.Illness,
		CaseDescription:  draft.CaseDescription,
		CorrectDiagnosis: draft.CorrectDiagnosis,
		CorrectTreatment: draft.CorrectTreatment,
		IsCompleted:      false,
		CreatedAt:        time.Now().UTC(),
	}
	s.nextCaseStudyID++
	s.casesBySession[draft.SessionID] = append(s.casesBySession[draft.SessionID], cs)
	s.caseByID[cs.ID] = cs

	return cloneCaseStudy(cs), nil
}

func (s *MemoryStore) UpdateCaseStudy(_ context.Context, id int64, update domain.CaseStudyUpdate) (*domain.CaseStudy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.caseByID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	// The session list holds the same record, so mutating it here updates
	// both views at once.
	if update.UserDiagnosis != nil {
		cs.UserDiagnosis = cloneStr(update.UserDiagnosis)
	}
	if update.UserTreatment != nil {
		cs.UserTreatment = cloneStr(update.UserTreatment)
	}
	if update.DiagnosisScore != nil {
		cs.DiagnosisScore = cloneInt(update.DiagnosisScore)
	}
	if update.TreatmentScore != nil {
		cs.TreatmentScore = cloneInt(update.TreatmentScore)
	}
	if update.Feedback != nil {
		cs.Feedback = cloneStr(update.Feedback)
	}
	if update.IsCompleted != nil {
		cs.IsCompleted = *update.IsCompleted
	}

	return cloneCaseStudy(cs), nil
}

func (s *MemoryStore) GetCaseStudyByID(_ context.Context, id int64) (*domain.CaseStudy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, ok := s.caseByID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCaseStudy(cs), nil
}

func (s *MemoryStore) ListCaseStudies(_ context.Context, sessionID string) ([]domain.CaseStudy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.casesBySession[sessionID]
	out := make([]domain.CaseStudy, 0, len(list))
	for _, cs := range list {
		out = append(out, *cloneCaseStudy(cs))
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneMessage(msg *domain.ChatMessage) *domain.ChatMessage {
	out := *msg
	out.Sources = cloneSources(msg.Sources)
	return &out
}

func cloneSources(sources []domain.Source) []domain.Source {
	if sources == nil {
		return nil
	}
	return append([]domain.Source(nil), sources...)
}

func cloneCaseStudy(cs *domain.CaseStudy) *domain.CaseStudy {
	out := *cs
	out.UserDiagnosis = cloneStr(cs.UserDiagnosis)
	out.UserTreatment = cloneStr(cs.UserTreatment)
	out.DiagnosisScore = cloneInt(cs.DiagnosisScore)
	out.TreatmentScore = cloneInt(cs.TreatmentScore)
	out.Feedback = cloneStr(cs.Feedback)
	return &out
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
