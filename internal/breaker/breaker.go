// Package breaker implements per-endpoint circuit breakers for upstream
// calls. A breaker opens after a run of consecutive failures, rejects calls
// while open, and probes the upstream again after a recovery timeout.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker open")

const (
	defaultFailureThreshold = 3
	defaultRecoveryTimeout  = 30 * time.Second
	defaultCallTimeout      = 5 * time.Second
)

// Breaker guards one upstream endpoint.
type Breaker struct {
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration
	callTimeout      time.Duration
	now              func() time.Time

	mu          sync.Mutex
	state       State
	consecutive int
	failures    int64
	successes   int64
	lastFailure time.Time
	openedAt    time.Time
}

type Option func(*Breaker)

func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

func WithRecoveryTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.recoveryTimeout = d
		}
	}
}

func WithCallTimeout(d time.Duration) Option {
	return func(b *Breaker) { b.callTimeout = d }
}

// WithNow overrides the time source, for tests.
func WithNow(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: defaultFailureThreshold,
		recoveryTimeout:  defaultRecoveryTimeout,
		callTimeout:      defaultCallTimeout,
		now:              time.Now,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

// Do runs fn under the breaker. While the breaker is open it returns
// ErrOpen without calling fn. The call runs under the breaker's timeout
// when one is configured.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}

	callCtx := ctx
	if b.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.callTimeout)
		defer cancel()
	}

	err := fn(callCtx)
	b.record(err)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.recoveryTimeout {
			return fmt.Errorf("%s: %w", b.name, ErrOpen)
		}
		b.state = StateHalfOpen
	case StateHalfOpen:
		// A probe is already in flight; admit one at a time.
		return fmt.Errorf("%s: %w", b.name, ErrOpen)
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.successes++
		b.consecutive = 0
		if b.state == StateHalfOpen {
			b.state = StateClosed
		}
		return
	}

	b.failures++
	b.consecutive++
	b.lastFailure = b.now()

	if b.state == StateHalfOpen || b.consecutive >= b.failureThreshold {
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// Reset forces the breaker closed and zeroes its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.consecutive = 0
	b.failures = 0
	b.successes = 0
	b.lastFailure = time.Time{}
	b.openedAt = time.Time{}
}

// Snapshot is the monitoring view of one breaker.
type Snapshot struct {
	Name                string `json:"name"`
	State               string `json:"state"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	TotalFailures       int64  `json:"total_failures"`
	TotalSuccesses      int64  `json:"total_successes"`
	LastFailureTime     string `json:"last_failure_time,omitempty"`
}

func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{
		Name:                b.name,
		State:               string(b.state),
		ConsecutiveFailures: b.consecutive,
		TotalFailures:       b.failures,
		TotalSuccesses:      b.successes,
	}
	if !b.lastFailure.IsZero() {
		snap.LastFailureTime = b.lastFailure.UTC().Format(time.RFC3339)
	}
	return snap
}

// Registry tracks every breaker for the monitoring surface.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
}

func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*Breaker)}
}

// Acquire returns the named breaker, creating it with the given options on
// first use.
func (r *Registry) Acquire(name string, opts ...Option) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := New(name, opts...)
	r.breakers[name] = b
	return b
}

func (r *Registry) Get(name string) (*Breaker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.breakers[name]
	return b, ok
}

// Snapshots returns the state of every breaker, sorted by name.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	breakers := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.RUnlock()

	out := make([]Snapshot, 0, len(breakers))
	for _, b := range breakers {
		out = append(out, b.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Reset closes one named breaker.
func (r *Registry) Reset(name string) error {
	b, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("unknown circuit breaker %q", name)
	}
	b.Reset()
	return nil
}
