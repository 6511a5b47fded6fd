// Package service orchestrates conversation and case-study flows between
// the session store and the computation units.
package service

import (
	"github.com/stgmed/assistant/internal/bridge"
	"github.com/stgmed/assistant/internal/store"
)

// Service holds the collaborators for all request flows. It owns no state
// of its own; the store is the only shared mutable resource and the bridge
// is stateless per invocation.
type Service struct {
	store  store.Store
	bridge bridge.Invoker
}

// New creates a service over the given store and bridge.
func New(st store.Store, inv bridge.Invoker) *Service {
	return &Service{
		store:  st,
		bridge: inv,
	}
}
