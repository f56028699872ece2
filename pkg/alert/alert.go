package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/reporadar/pkg/trend"
)

const (
	defaultAttempts = 3
	initialDelay    = 500 * time.Millisecond
	maxDelay        = 10 * time.Second
)

// Digest is the ranked result set sent to alert destinations.
type Digest struct {
	Title    string         `json:"title"`
	Model    string         `json:"model,omitempty"`
	ScoredAt time.Time      `json:"scored_at"`
	Repos    []trend.Ranked `json:"repos"`
}

// Notifier delivers a digest to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, d *Digest) error
}

// Manager broadcasts digests to all registered notifiers.
type Manager struct {
	notifiers []Notifier
	attempts  uint
	delay     time.Duration
	logger    *slog.Logger
}

// NewManager creates a new alert manager. Each delivery is attempted up to
// attempts times with exponential backoff.
func NewManager(notifiers []Notifier, attempts uint, logger *slog.Logger) *Manager {
	if attempts == 0 {
		attempts = defaultAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		notifiers: notifiers,
		attempts:  attempts,
		delay:     initialDelay,
		logger:    logger,
	}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends d to all notifiers concurrently and joins their errors.
func (m *Manager) Broadcast(ctx context.Context, d *Digest) error {
	var (
		mu   sync.Mutex
		errs []error
		eg   errgroup.Group
	)
	for _, notifier := range m.notifiers {
		eg.Go(func() error {
			if err := m.deliver(ctx, notifier, d); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()
	return errors.Join(errs...)
}

func (m *Manager) deliver(ctx context.Context, n Notifier, d *Digest) error {
	return retry.Do(
		func() error { return n.Send(ctx, d) },
		retry.Context(ctx),
		retry.Attempts(m.attempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(m.delay),
		retry.MaxDelay(maxDelay),
		retry.OnRetry(func(attempt uint, err error) {
			m.logger.Warn("digest delivery failed", "component", "alert",
				"notifier", n.Name(), "attempt", attempt+1, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
}
