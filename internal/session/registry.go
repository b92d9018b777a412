package session

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Simplici0/printfleet/internal/store"
)

// StoreFunc opens the store of an account.
type StoreFunc func(accountID string) (store.Store, error)

// Registry starts one Session per account on first use.
type Registry struct {
	open StoreFunc
	log  *zap.Logger
	opts Options

	// starting collapses concurrent starts of the same account.
	starting singleflight.Group

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(open StoreFunc, log *zap.Logger, opts Options) *Registry {
	return &Registry{open: open, log: log, opts: opts, sessions: map[string]*Session{}}
}

// Get returns the running session of accountID, starting it when needed. Starting one
// account does not hold up requests for the others.
func (r *Registry) Get(ctx context.Context, accountID string) (*Session, error) {
	if s, ok := r.lookup(accountID); ok {
		return s, nil
	}

	v, err, _ := r.starting.Do(accountID, func() (any, error) {
		if s, ok := r.lookup(accountID); ok {
			return s, nil
		}

		st, err := r.open(accountID)
		if err != nil {
			return nil, err
		}
		s := New(accountID, st, r.log, r.opts)
		if err := s.Start(ctx); err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.sessions[accountID] = s
		r.mu.Unlock()
		r.log.Info("session started", zap.String("account_id", accountID))
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (r *Registry) lookup(accountID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[accountID]
	return s, ok
}

// CloseAll stops every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		s.Close()
		delete(r.sessions, id)
	}
}
