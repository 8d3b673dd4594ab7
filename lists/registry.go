package lists

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"wanderlist/auth"
)

// Registry holds one Manager per signed-in user. Managers are created on
// sign-in or on first use and dropped on sign-out.
type Registry struct {
	opts Options

	mu       sync.Mutex
	managers map[string]*Manager
}

func NewRegistry(opts Options) *Registry {
	return &Registry{opts: opts, managers: make(map[string]*Manager)}
}

// For returns the user's manager with both lists loaded.
func (r *Registry) For(ctx context.Context, userID string) *Manager {
	if userID == "" {
		return NewManager("", r.opts)
	}
	r.mu.Lock()
	m, ok := r.managers[userID]
	if !ok {
		m = NewManager(userID, r.opts)
		r.managers[userID] = m
	}
	r.mu.Unlock()

	m.Load(ctx)
	return m
}

// SignedIn reloads the user's manager from the store, creating it if
// needed. An existing manager is kept so writes already holding it stay
// serialized with later ones.
func (r *Registry) SignedIn(ctx context.Context, userID string) *Manager {
	r.mu.Lock()
	m, ok := r.managers[userID]
	if !ok {
		m = NewManager(userID, r.opts)
		r.managers[userID] = m
	}
	r.mu.Unlock()

	if err := m.Reload(ctx); err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("reload lists on sign-in")
	}
	return m
}

// SignedOut drops the user's in-memory lists.
func (r *Registry) SignedOut(userID string) {
	r.mu.Lock()
	delete(r.managers, userID)
	r.mu.Unlock()
}

// HandleAuthState is an auth.Service subscriber. Loading after sign-in
// runs in the background.
func (r *Registry) HandleAuthState(st auth.State) {
	if !st.SignedIn {
		r.SignedOut(st.UserID)
		log.Debug().Str("userId", st.UserID).Msg("lists cleared on sign-out")
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		r.SignedIn(ctx, st.UserID)
	}()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}
