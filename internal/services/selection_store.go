// Package services – SelectionStore
//
// The store owns the ephemeral per-user selection records. It replaces the
// ambient per-conversation state of the chat framework with an explicit,
// mutex-guarded map keyed by user id and a create/get/clear lifecycle.
// Entries live only for the duration of a buy flow; terminal transitions
// (purchase success, explicit cancel) remove them.
package services

import (
	"sync"

	"github.com/avezhov/go-proxy-store/internal/domain"
)

// SelectionStore keeps one in-progress Selection per user. Safe for
// concurrent use; the external dispatcher serializes events per user, so
// the lock only guards against cross-user map access.
type SelectionStore struct {
	mu     sync.Mutex
	byUser map[int64]*domain.Selection
}

// NewSelectionStore constructs an empty store.
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{byUser: make(map[int64]*domain.Selection)}
}

// Create replaces any existing selection for userID with a fresh one at
// the first step and returns it.
func (st *SelectionStore) Create(userID int64) *domain.Selection {
	st.mu.Lock()
	defer st.mu.Unlock()
	sel := &domain.Selection{Step: domain.StepVersion}
	st.byUser[userID] = sel
	return sel
}

// Get returns the user's active selection, or nil when there is none.
func (st *SelectionStore) Get(userID int64) *domain.Selection {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.byUser[userID]
}

// Clear removes the user's selection, if any.
func (st *SelectionStore) Clear(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.byUser, userID)
}

// Len reports the number of active selections (diagnostics only).
func (st *SelectionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.byUser)
}
