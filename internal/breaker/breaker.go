// v2
// internal/breaker/breaker.go
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

// ErrOpen is returned when the breaker fast-fails without running the op.
var ErrOpen = errors.New("circuit breaker is open; fast-fail")

// Config tunes breaker behavior.
type Config struct {
	MaxFailures  int           // consecutive failures before opening
	ResetTimeout time.Duration // time to stay open before probing
}

// Breaker guards an unreliable downstream. After MaxFailures consecutive
// failures it opens and fast-fails callers until ResetTimeout elapses, then
// runs the probe (if any) before letting one operation through half-open.
type Breaker struct {
	name  string
	cfg   Config
	log   *slog.Logger
	probe func(ctx context.Context) error

	mu          sync.Mutex
	state       State
	recentFails int
	openedAt    time.Time
}

func New(name string, cfg Config, log *slog.Logger, probe func(ctx context.Context) error) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	b := &Breaker{name: name, cfg: cfg, log: log, probe: probe, state: Closed}
	b.log.Info("breaker_created", "name", name, "maxFailures", cfg.MaxFailures, "resetTimeout", cfg.ResetTimeout.String())
	return b
}

// Execute runs op under breaker protection.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	state := b.state
	openedAt := b.openedAt
	b.mu.Unlock()

	if state == Open {
		if time.Since(openedAt) < b.cfg.ResetTimeout {
			b.log.Warn("breaker_fast_fail", "name", b.name, "since_open", time.Since(openedAt).String())
			return ErrOpen
		}
		return b.tryProbeThenOp(ctx, op)
	}

	err := op(ctx)
	if err == nil {
		b.onSuccess()
		return nil
	}
	b.onFailure(err)
	return err
}

func (b *Breaker) tryProbeThenOp(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	b.state = HalfOpen
	had := b.recentFails
	b.mu.Unlock()
	b.log.Info("breaker_probe_start", "name", b.name, "previous_failures", had)

	if b.probe != nil {
		if err := b.probe(ctx); err != nil {
			b.log.Warn("breaker_probe_failed", "name", b.name, "error", err.Error())
			b.reopen()
			return ErrOpen
		}
	}

	if err := op(ctx); err != nil {
		b.log.Warn("breaker_halfopen_op_failed", "name", b.name, "error", err.Error())
		b.reopen()
		return err
	}

	b.mu.Lock()
	b.state = Closed
	b.recentFails = 0
	b.mu.Unlock()
	b.log.Info("breaker_closed_after_probe", "name", b.name)
	return nil
}

func (b *Breaker) reopen() {
	b.mu.Lock()
	b.state = Open
	b.openedAt = time.Now()
	b.recentFails++
	b.mu.Unlock()
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.recentFails = 0
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recentFails++
	b.log.Warn("operation_failure", "name", b.name, "failures", b.recentFails, "error", err.Error())
	if b.recentFails >= b.cfg.MaxFailures {
		b.state = Open
		b.openedAt = time.Now()
		b.log.Error("breaker_opened", "name", b.name, "maxFailures", b.cfg.MaxFailures)
	}
}

// State reports the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
