// Package scheduler runs caller-registered periodic maintenance jobs on a
// cron.New(cron.WithSeconds()) + "@every" clock, and provides Backoff, an
// exponential delay calculator for retry policies. Backoff only computes
// delays; it holds no timer and nothing here waits on it.
package scheduler

import (
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/stlalpha/tn5250term/internal/logging"
)

// Maintainer runs a small, fixed set of periodic maintenance jobs on a
// cron.Cron with second-level resolution.
type Maintainer struct {
	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

// NewMaintainer creates a Maintainer with no jobs registered yet.
func NewMaintainer() *Maintainer {
	return &Maintainer{cron: cron.New(cron.WithSeconds())}
}

// Every registers fn to run on the given cron spec (e.g. "@every 1s").
// Must be called before Start.
func (m *Maintainer) Every(spec string, fn func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.cron.AddFunc(spec, fn)
	return err
}

// Start begins running registered jobs. Safe to call once; subsequent
// calls are no-ops.
func (m *Maintainer) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	m.cron.Start()
	logging.Info("scheduler: maintenance jobs started")
}

// Stop halts the cron scheduler and waits for any in-flight job to
// finish before returning.
func (m *Maintainer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.started = false
	logging.Info("scheduler: maintenance jobs stopped")
}
