package domain

// ChatRequest is the body of POST /api/search. An absent SessionID is
// defaulted to a freshly generated one by the handler; callers that want a
// single logical conversation must echo the returned SessionID back.
type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId,omitempty"`
}

// ChatResponse is the answer to one question, with citations.
type ChatResponse struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	SessionID string   `json:"sessionId"`
}

// GenerateCaseStudyRequest is the body of POST /api/case-study/generate.
// SessionID defaulting works as in ChatRequest.
type GenerateCaseStudyRequest struct {
	SessionID string `json:"sessionId,omitempty"`
}

// CaseStudySummary is the public view of a freshly generated case study.
// The correct diagnosis and treatment are the answer key and are withheld
// until the user submits.
type CaseStudySummary struct {
	ID              int64  `json:"id"`
	SessionID       string `json:"sessionId"`
	Illness         string `json:"illness"`
	CaseDescription string `json:"caseDescription"`
	IsCompleted     bool   `json:"isCompleted"`
}

// SubmitAnswersRequest is the body of POST /api/case-study/submit.
type SubmitAnswersRequest struct {
	CaseStudyID int64  `json:"caseStudyId"`
	Diagnosis   string `json:"diagnosis"`
	Treatment   string `json:"treatment"`
}

// CaseStudyResult is the scored outcome of a submission, revealing the
// answer key.
type CaseStudyResult struct {
	DiagnosisScore   int    `json:"diagnosisScore"`
	TreatmentScore   int    `json:"treatmentScore"`
	Feedback         string `json:"feedback"`
	CorrectDiagnosis string `json:"correctDiagnosis"`
	CorrectTreatment string `json:"correctTreatment"`
	IsCompleted      bool   `json:"isCompleted"`
}
