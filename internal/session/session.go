// Package session ties together the per-account services and the background low-stock
// refresh. A Session has an explicit lifecycle: Start launches the refresh loop and Close
// stops it.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/printfleet/internal/editor"
	"github.com/Simplici0/printfleet/internal/inventory"
	"github.com/Simplici0/printfleet/internal/jobs"
	"github.com/Simplici0/printfleet/internal/store"
)

// Options tune the alert refresh.
type Options struct {
	LowStockPercent float64
	Interval        time.Duration
}

func (o Options) withDefaults() Options {
	if o.LowStockPercent <= 0 {
		o.LowStockPercent = inventory.DefaultLowStockPercent
	}
	if o.Interval <= 0 {
		o.Interval = time.Minute
	}
	return o
}

// Session is the working context of one account.
type Session struct {
	AccountID string
	Store     store.Store
	Jobs      *jobs.Service
	Editor    *editor.Editor

	log  *zap.Logger
	opts Options

	mu     sync.RWMutex
	alerts []inventory.Alert

	cancel context.CancelFunc
	done   chan struct{}
}

func New(accountID string, s store.Store, log *zap.Logger, opts Options) *Session {
	log = log.With(zap.String("account_id", accountID))
	return &Session{
		AccountID: accountID,
		Store:     s,
		Jobs:      jobs.NewService(s, log),
		Editor:    editor.New(s, log),
		log:       log,
		opts:      opts.withDefaults(),
	}
}

// Start loads the editor snapshot, computes the first alerts and starts the refresh loop.
func (s *Session) Start(ctx context.Context) error {
	if s.done != nil {
		return fmt.Errorf("session %s already started", s.AccountID)
	}
	if err := s.Editor.Load(ctx); err != nil {
		return fmt.Errorf("load assets: %w", err)
	}
	if err := s.RefreshAlerts(ctx); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(loopCtx)
	return nil
}

func (s *Session) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshAlerts(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("refresh low-stock alerts", zap.Error(err))
			}
		}
	}
}

// RefreshAlerts recomputes the low-stock alerts from the store.
func (s *Session) RefreshAlerts(ctx context.Context) error {
	materials, err := s.Store.Materials.List(ctx)
	if err != nil {
		return fmt.Errorf("list materials: %w", err)
	}
	alerts := inventory.LowStock(materials, s.opts.LowStockPercent)

	s.mu.Lock()
	prev := len(s.alerts)
	s.alerts = alerts
	s.mu.Unlock()

	if len(alerts) > prev {
		s.log.Info("materials running low", zap.Int("count", len(alerts)))
	}
	return nil
}

// Alerts returns the alerts computed by the last refresh.
func (s *Session) Alerts() []inventory.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]inventory.Alert{}, s.alerts...)
}

// Close stops the refresh loop and waits for it to exit. It is safe to call on a session
// that was never started.
func (s *Session) Close() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}
