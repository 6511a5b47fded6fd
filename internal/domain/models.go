// Package domain defines the core domain models for the assistant backend.
package domain

import (
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Source is a citation embedded in an assistant message. It is a value type
// with no lifecycle of its own.
type Source struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Page    string `json:"page,omitempty"`
	Section string `json:"section,omitempty"`
}

// ChatMessage is a single turn in a session's conversation. Messages are
// immutable once stored; the store assigns ID and CreatedAt.
type ChatMessage struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CaseStudy is a generated clinical vignette with a hidden answer key.
// It is created open (IsCompleted=false, user fields nil) and transitions
// to completed exactly once when a submission is evaluated. The correct
// answer fields never change after creation.
type CaseStudy struct {
	ID               int64     `json:"id"`
	SessionID        string    `json:"sessionId"`
	Illness          string    `json:"illness"`
	CaseDescription  string    `json:"caseDescription"`
	CorrectDiagnosis string    `json:"correctDiagnosis"`
	CorrectTreatment string    `json:"correctTreatment"`
	UserDiagnosis    *string   `json:"userDiagnosis,omitempty"`
	UserTreatment    *string   `json:"userTreatment,omitempty"`
	DiagnosisScore   *int      `json:"diagnosisScore,omitempty"`
	TreatmentScore   *int      `json:"treatmentScore,omitempty"`
	Feedback         *string   `json:"feedback,omitempty"`
	IsCompleted      bool      `json:"isCompleted"`
	CreatedAt        time.Time `json:"createdAt"`
}

// CaseStudyDraft holds the fields needed to create an open case study.
// The store assigns ID and CreatedAt and forces IsCompleted=false.
type CaseStudyDraft struct {
	SessionID        string
	Illness          string
	CaseDescription  string
	CorrectDiagnosis string
	CorrectTreatment string
}

// CaseStudyUpdate is a partial update applied to an existing case study.
// Nil fields are left untouched. The correct answer fields are deliberately
// not expressible here.
type CaseStudyUpdate struct {
	UserDiagnosis  *string
	UserTreatment  *string
	DiagnosisScore *int
	TreatmentScore *int
	Feedback       *string
	IsCompleted    *bool
}
