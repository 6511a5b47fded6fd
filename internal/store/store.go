// Package store defines the session store interface and implementations.
//
// The store is the single source of truth for conversation and case-study
// state. Identifiers are strictly increasing for the lifetime of a store and
// never reused; per-session message lists are append-only and preserve
// insertion order. Case studies are reachable both through their session's
// ordered list and by identity, and the two views always agree.
package store

import (
	"context"

	"github.com/stgmed/assistant/internal/domain"
)

// Store is the interface services use for all shared state.
//
// Implementations must serialize mutations so that identifier monotonicity
// and the dual-view consistency of case studies hold under concurrent
// access. Reads taken while an update is in flight must observe either the
// whole update or none of it.
type Store interface {
	// AppendMessage assigns the next message id, stamps the current time and
	// appends to the session's list, creating the list if absent.
	AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string, sources []domain.Source) (*domain.ChatMessage, error)

	// ListMessages returns the session's messages in insertion order. An
	// unknown session yields an empty slice, not an error.
	ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)

	// CreateCaseStudy inserts an open case study into both the session list
	// and the identity index.
	CreateCaseStudy(ctx context.Context, draft domain.CaseStudyDraft) (*domain.CaseStudy, error)

	// UpdateCaseStudy merges the non-nil fields of update into the stored
	// record, updating both views atomically. Returns domain.ErrNotFound for
	// an unknown id, leaving the store untouched.
	UpdateCaseStudy(ctx context.Context, id int64, update domain.CaseStudyUpdate) (*domain.CaseStudy, error)

	// GetCaseStudyByID returns the record or domain.ErrNotFound.
	GetCaseStudyByID(ctx context.Context, id int64) (*domain.CaseStudy, error)

	// ListCaseStudies returns the session's case studies in creation order.
	ListCaseStudies(ctx context.Context, sessionID string) ([]domain.CaseStudy, error)

	Close() error
}
