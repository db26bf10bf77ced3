package services

import (
	"context"
	"log/slog"
	"sync"

	"gastos/internal/core"
	"gastos/internal/dashboard"
	"gastos/internal/events"
)

// LiveOverview keeps a dashboard for one period up to date. It recomputes
// synchronously on the publishing goroutine after every committed change to
// any collection, so a reader right after a write sees that write.
type LiveOverview struct {
	ledger *Ledger

	mu       sync.RWMutex
	period   core.Period
	current  dashboard.Overview
	err      error
	onUpdate func(dashboard.Overview)

	unsubscribe func()
}

// NewLiveOverview computes the initial overview for p and starts tracking
// changes. onUpdate, when non-nil, receives each recomputed overview and
// must not block.
func NewLiveOverview(ctx context.Context, l *Ledger, p core.Period, onUpdate func(dashboard.Overview)) (*LiveOverview, error) {
	lo := &LiveOverview{ledger: l, period: p, onUpdate: onUpdate}
	if err := lo.refresh(ctx); err != nil {
		return nil, err
	}
	lo.unsubscribe = l.Bus().Subscribe(func(c events.Change) {
		if err := lo.refresh(context.Background()); err != nil {
			slog.Error("Dashboard recompute failed",
				"collection", c.Collection, "op", c.Op, "error", err)
		}
	}, events.AllCollections...)
	return lo, nil
}

func (lo *LiveOverview) refresh(ctx context.Context) error {
	lo.mu.RLock()
	p := lo.period
	lo.mu.RUnlock()

	ov, err := lo.ledger.Dashboard(ctx, p)

	lo.mu.Lock()
	lo.err = err
	if err == nil {
		lo.current = ov
	}
	notify := lo.onUpdate
	lo.mu.Unlock()

	if err == nil && notify != nil {
		notify(ov)
	}
	return err
}

// Current returns the latest overview and the error of the last recompute.
func (lo *LiveOverview) Current() (dashboard.Overview, error) {
	lo.mu.RLock()
	defer lo.mu.RUnlock()
	return lo.current, lo.err
}

// SetPeriod switches the tracked month and recomputes immediately.
func (lo *LiveOverview) SetPeriod(ctx context.Context, p core.Period) error {
	if err := p.Validate(); err != nil {
		return err
	}
	lo.mu.Lock()
	lo.period = p
	lo.mu.Unlock()
	return lo.refresh(ctx)
}

// Close stops tracking changes.
func (lo *LiveOverview) Close() {
	if lo.unsubscribe != nil {
		lo.unsubscribe()
	}
}
