// Package ratelimit implements named token buckets that pace calls to the
// upstream exchange API.
package ratelimit

import (
	"sort"
	"sync"
	"time"
)

// Rule configures one named bucket. Burst defaults to PerMin when zero.
type Rule struct {
	Name   string
	PerMin int
	Burst  int
}

type bucket struct {
	rule     Rule
	rate     float64
	burst    float64
	tokens   float64
	last     time.Time
	allowed  int64
	rejected int64
}

// Limiter holds every named bucket. Calls against unknown rules pass.
type Limiter struct {
	mu      sync.Mutex
	now     func() time.Time
	buckets map[string]*bucket
}

type Option func(*Limiter)

// WithNow overrides the time source, for tests.
func WithNow(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func New(opts ...Option) *Limiter {
	l := &Limiter{
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddRule registers a bucket that starts full.
func (l *Limiter) AddRule(rule Rule) {
	if rule.PerMin <= 0 {
		rule.PerMin = 60
	}
	if rule.Burst <= 0 {
		rule.Burst = rule.PerMin
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets[rule.Name] = &bucket{
		rule:   rule,
		rate:   float64(rule.PerMin) / 60.0,
		burst:  float64(rule.Burst),
		tokens: float64(rule.Burst),
		last:   l.now(),
	}
}

// Allow consumes one token from the named bucket and reports whether the
// call may proceed.
func (l *Limiter) Allow(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[name]
	if !ok {
		return true
	}

	now := l.now()
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.rate
		if b.tokens > b.burst {
			b.tokens = b.burst
		}
	}
	b.last = now

	if b.tokens < 1 {
		b.rejected++
		return false
	}
	b.tokens--
	b.allowed++
	return true
}

// Snapshot is the monitoring view of one bucket.
type Snapshot struct {
	Name            string  `json:"name"`
	LimitPerMin     int     `json:"limit_per_min"`
	Burst           int     `json:"burst"`
	AvailableTokens float64 `json:"available_tokens"`
	Allowed         int64   `json:"allowed"`
	Rejected        int64   `json:"rejected"`
}

// Snapshots returns the state of every bucket, sorted by name. Token
// counts are refreshed to the current instant first.
func (l *Limiter) Snapshots() []Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	out := make([]Snapshot, 0, len(l.buckets))
	for _, b := range l.buckets {
		tokens := b.tokens
		if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
			tokens += elapsed * b.rate
			if tokens > b.burst {
				tokens = b.burst
			}
		}
		out = append(out, Snapshot{
			Name:            b.rule.Name,
			LimitPerMin:     b.rule.PerMin,
			Burst:           b.rule.Burst,
			AvailableTokens: tokens,
			Allowed:         b.allowed,
			Rejected:        b.rejected,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
