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

// Limits per the UI contract for POST /api/case-study/submit.
const (
	maxDiagnosisLen = 500
	maxTreatmentLen = 1000
)

// generatedCase is the case generator's stdout shape.
type generatedCase struct {
	Illness          string `json:"illness"`
	CaseDescription  string `json:"case_description"`
	CorrectDiagnosis string `json:"correct_diagnosis"`
	CorrectTreatment string `json:"correct_treatment"`
}

// evaluation is the evaluator's stdout shape.
type evaluation struct {
	DiagnosisScore int    `json:"diagnosis_score"`
	TreatmentScore int    `json:"treatment_score"`
	Feedback       string `json:"feedback"`
}

// GenerateCaseStudy creates a new open case study for the session. The
// returned summary withholds the answer key.
func (s *Service) GenerateCaseStudy(ctx context.Context, sessionID string) (*domain.CaseStudySummary, error) {
	raw, err := s.bridge.Invoke(ctx, bridge.UnitCaseStudy, "generate")
	if err != nil {
		log.Error("case study generation failed", err)
		return nil, &domain.UpstreamError{Op: "case study generation", Err: err}
	}

	var gen generatedCase
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, &domain.UpstreamError{Op: "case study generation", Err: fmt.Errorf("unexpected response shape: %w", err)}
	}
	if gen.Illness == "" || gen.CaseDescription == "" || gen.CorrectDiagnosis == "" || gen.CorrectTreatment == "" {
		return nil, &domain.UpstreamError{Op: "case study generation", Err: fmt.Errorf("incomplete case study payload")}
	}

	cs, err := s.store.CreateCaseStudy(ctx, domain.CaseStudyDraft{
		SessionID:        sessionID,
		Illness:          gen.Illness,
		CaseDescription:  gen.CaseDescription,
		CorrectDiagnosis: gen.CorrectDiagnosis,
		CorrectTreatment: gen.CorrectTreatment,
	})
	if err != nil {
		return nil, fmt.Errorf("persist case study: %w", err)
	}

	return &domain.CaseStudySummary{
		ID:              cs.ID,
		SessionID:       cs.SessionID,
		Illness:         cs.Illness,
		CaseDescription: cs.CaseDescription,
		IsCompleted:     cs.IsCompleted,
	}, nil
}

// SubmitCaseStudy evaluates a submission against the stored answer key and
// completes the case study. On evaluator failure the record stays open and
// untouched, so the client may retry.
func (s *Service) SubmitCaseStudy(ctx context.Context, caseStudyID int64, diagnosis, treatment string) (*domain.CaseStudyResult, error) {
	if err := validateAnswer("diagnosis", diagnosis, maxDiagnosisLen); err != nil {
		return nil, err
	}
	if err := validateAnswer("treatment", treatment, maxTreatmentLen); err != nil {
		return nil, err
	}

	cs, err := s.store.GetCaseStudyByID(ctx, caseStudyID)
	if err != nil {
		return nil, err
	}

	raw, err := s.bridge.Invoke(ctx, bridge.UnitCaseStudy, "evaluate",
		cs.CorrectDiagnosis, cs.CorrectTreatment, diagnosis, treatment)
	if err != nil {
		log.Error("answer evaluation failed", err)
		return nil, &domain.UpstreamError{Op: "answer evaluation", Err: err}
	}

	var eval evaluation
	if err := json.Unmarshal(raw, &eval); err != nil {
		return nil, &domain.UpstreamError{Op: "answer evaluation", Err: fmt.Errorf("unexpected response shape: %w", err)}
	}
	if !validScore(eval.DiagnosisScore) || !validScore(eval.TreatmentScore) {
		return nil, &domain.UpstreamError{Op: "answer evaluation", Err: fmt.Errorf("score out of range: diagnosis=%d treatment=%d", eval.DiagnosisScore, eval.TreatmentScore)}
	}

	completed := true
	updated, err := s.store.UpdateCaseStudy(ctx, caseStudyID, domain.CaseStudyUpdate{
		UserDiagnosis:  &diagnosis,
		UserTreatment:  &treatment,
		DiagnosisScore: &eval.DiagnosisScore,
		TreatmentScore: &eval.TreatmentScore,
		Feedback:       &eval.Feedback,
		IsCompleted:    &completed,
	})
	if err != nil {
		return nil, fmt.Errorf("persist evaluation: %w", err)
	}

	return &domain.CaseStudyResult{
		DiagnosisScore:   *updated.DiagnosisScore,
		TreatmentScore:   *updated.TreatmentScore,
		Feedback:         *updated.Feedback,
		CorrectDiagnosis: updated.CorrectDiagnosis,
		CorrectTreatment: updated.CorrectTreatment,
		IsCompleted:      updated.IsCompleted,
	}, nil
}

// CaseStudies returns the session's case studies in creation order.
func (s *Service) CaseStudies(ctx context.Context, sessionID string) ([]domain.CaseStudy, error) {
	cases, err := s.store.ListCaseStudies(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list case studies: %w", err)
	}
	return cases, nil
}

func validateAnswer(field, value string, max int) error {
	if value == "" {
		return &domain.ValidationError{Field: field, Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(value) > max {
		return &domain.ValidationError{Field: field, Reason: fmt.Sprintf("must be at most %d characters", max)}
	}
	return nil
}

func validScore(score int) bool {
	return score >= 0 && score <= 100
}
