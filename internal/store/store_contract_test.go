package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stgmed/assistant/internal/domain"
)

// runStoreContract exercises the Store contract shared by every
// implementation.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("messages append in order with increasing ids", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		const n = 5
		for i := 0; i < n; i++ {
			_, err := s.AppendMessage(ctx, "s1", domain.RoleUser, fmt.Sprintf("question %d", i), nil)
			require.NoError(t, err)
		}

		messages, err := s.ListMessages(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, messages, n)
		for i, msg := range messages {
			assert.Equal(t, fmt.Sprintf("question %d", i), msg.Content)
			if i > 0 {
				assert.Greater(t, msg.ID, messages[i-1].ID)
			}
		}
	})

	t.Run("message ids increase across sessions", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		a, err := s.AppendMessage(ctx, "s1", domain.RoleUser, "first", nil)
		require.NoError(t, err)
		b, err := s.AppendMessage(ctx, "s2", domain.RoleUser, "second", nil)
		require.NoError(t, err)
		assert.Greater(t, b.ID, a.ID)
	})

	t.Run("unknown session lists empty", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		messages, err := s.ListMessages(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, messages)

		cases, err := s.ListCaseStudies(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, cases)
	})

	t.Run("sources round-trip on assistant messages", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		sources := []domain.Source{
			{ID: "stg-1", Title: "Malaria", Content: "First line treatment...", Page: "112", Section: "6.1"},
		}
		stored, err := s.AppendMessage(ctx, "s1", domain.RoleAssistant, "Artemether-lumefantrine.", sources)
		require.NoError(t, err)
		assert.Equal(t, sources, stored.Sources)

		messages, err := s.ListMessages(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, sources, messages[0].Sources)
	})

	t.Run("create case study starts open", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		cs, err := s.CreateCaseStudy(ctx, malariaDraft("s1"))
		require.NoError(t, err)
		assert.False(t, cs.IsCompleted)
		assert.Nil(t, cs.UserDiagnosis)
		assert.Nil(t, cs.UserTreatment)
		assert.Nil(t, cs.DiagnosisScore)
		assert.Nil(t, cs.TreatmentScore)
		assert.Nil(t, cs.Feedback)
	})

	t.Run("both views agree at every point", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		cs, err := s.CreateCaseStudy(ctx, malariaDraft("s1"))
		require.NoError(t, err)

		assertViewsAgree(t, s, cs.ID, cs.SessionID)

		diagnosis, treatment := "Malaria", "ACT"
		diagScore, treatScore := 90, 70
		feedback := "Good diagnosis, review dosing."
		completed := true
		updated, err := s.UpdateCaseStudy(ctx, cs.ID, domain.CaseStudyUpdate{
			UserDiagnosis:  &diagnosis,
			UserTreatment:  &treatment,
			DiagnosisScore: &diagScore,
			TreatmentScore: &treatScore,
			Feedback:       &feedback,
			IsCompleted:    &completed,
		})
		require.NoError(t, err)
		assert.True(t, updated.IsCompleted)
		require.NotNil(t, updated.DiagnosisScore)
		assert.Equal(t, 90, *updated.DiagnosisScore)

		assertViewsAgree(t, s, cs.ID, cs.SessionID)
	})

	t.Run("update keeps correct answers intact", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		cs, err := s.CreateCaseStudy(ctx, malariaDraft("s1"))
		require.NoError(t, err)

		completed := true
		diagnosis := "Typhoid"
		updated, err := s.UpdateCaseStudy(ctx, cs.ID, domain.CaseStudyUpdate{
			UserDiagnosis: &diagnosis,
			IsCompleted:   &completed,
		})
		require.NoError(t, err)
		assert.Equal(t, cs.CorrectDiagnosis, updated.CorrectDiagnosis)
		assert.Equal(t, cs.CorrectTreatment, updated.CorrectTreatment)
	})

	t.Run("update unknown id fails and mutates nothing", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		cs, err := s.CreateCaseStudy(ctx, malariaDraft("s1"))
		require.NoError(t, err)

		completed := true
		_, err = s.UpdateCaseStudy(ctx, cs.ID+100, domain.CaseStudyUpdate{IsCompleted: &completed})
		assert.ErrorIs(t, err, domain.ErrNotFound)

		got, err := s.GetCaseStudyByID(ctx, cs.ID)
		require.NoError(t, err)
		assert.False(t, got.IsCompleted)
	})

	t.Run("get unknown id returns not found", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_, err := s.GetCaseStudyByID(ctx, 42)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("reads are idempotent", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_, err := s.AppendMessage(ctx, "s1", domain.RoleUser, "hello", nil)
		require.NoError(t, err)
		_, err = s.CreateCaseStudy(ctx, malariaDraft("s1"))
		require.NoError(t, err)

		m1, err := s.ListMessages(ctx, "s1")
		require.NoError(t, err)
		m2, err := s.ListMessages(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, m1, m2)

		c1, err := s.ListCaseStudies(ctx, "s1")
		require.NoError(t, err)
		c2, err := s.ListCaseStudies(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, c1, c2)
	})

	t.Run("case studies keep creation order per session", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		first, err := s.CreateCaseStudy(ctx, malariaDraft("s1"))
		require.NoError(t, err)
		second, err := s.CreateCaseStudy(ctx, domain.CaseStudyDraft{
			SessionID:        "s1",
			Illness:          "Typhoid Fever",
			CaseDescription:  "PATIENT INFO: 30-year-old with sustained fever...",
			CorrectDiagnosis: "Typhoid Fever",
			CorrectTreatment: "Ciprofloxacin",
		})
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)

		list, err := s.ListCaseStudies(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, first.ID, list[0].ID)
		assert.Equal(t, second.ID, list[1].ID)
	})
}

func malariaDraft(sessionID string) domain.CaseStudyDraft {
	return domain.CaseStudyDraft{
		SessionID:        sessionID,
		Illness:          "Malaria",
		CaseDescription:  "PATIENT INFO: 24-year-old presents with fever and chills...",
		CorrectDiagnosis: "Malaria",
		CorrectTreatment: "Artemether-lumefantrine",
	}
}

// assertViewsAgree checks that the identity lookup and the session list see
// the same record, field for field.
func assertViewsAgree(t *testing.T, s Store, id int64, sessionID string) {
	t.Helper()

	byID, err := s.GetCaseStudyByID(context.Background(), id)
	require.NoError(t, err)

	list, err := s.ListCaseStudies(context.Background(), sessionID)
	require.NoError(t, err)
	for _, cs := range list {
		if cs.ID == id {
			assert.Equal(t, *byID, cs)
			return
		}
	}
	t.Fatalf("case study %d not present in session %s list", id, sessionID)
}
