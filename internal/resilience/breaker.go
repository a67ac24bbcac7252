package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// BreakerState is the lifecycle position of one host's breaker.
type BreakerState int

const (
	// BreakerClosed lets requests through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects requests until the cooldown elapses.
	BreakerOpen
	// BreakerProbing lets a limited number of requests test recovery.
	BreakerProbing
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerProbing:
		return "probing"
	default:
		return "closed"
	}
}

// ErrBreakerOpen is returned while a host's breaker is rejecting requests.
// Connectors treat it like any other fetch failure and fall back to their
// snapshots.
var ErrBreakerOpen = eris.New("upstream host suspended after repeated failures")

// BreakerConfig tunes one breaker. Zero fields take the defaults.
type BreakerConfig struct {
	// FailureLimit is the failure streak that opens the breaker.
	FailureLimit int

	// Cooldown is how long an open breaker rejects before probing.
	Cooldown time.Duration

	// ProbeQuota is the number of successful probes that close the breaker
	// again.
	ProbeQuota int

	// OnTransition is invoked on every state change.
	OnTransition func(from, to BreakerState)
}

// DefaultBreakerConfig suspends a host after five straight failures for
// sixty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureLimit: 5, Cooldown: 60 * time.Second, ProbeQuota: 1}
}

// BreakerFromConfig builds a BreakerConfig from config file values.
func BreakerFromConfig(failureLimit, cooldownSecs int) BreakerConfig {
	cfg := DefaultBreakerConfig()
	if failureLimit > 0 {
		cfg.FailureLimit = failureLimit
	}
	if cooldownSecs > 0 {
		cfg.Cooldown = time.Duration(cooldownSecs) * time.Second
	}
	return cfg
}

// Breaker tracks the failure streak for a single upstream host.
type Breaker struct {
	cfg BreakerConfig

	mu         sync.Mutex
	state      BreakerState
	failStreak int
	openedAt   time.Time
	probeWins  int

	clock func() time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	def := DefaultBreakerConfig()
	if cfg.FailureLimit <= 0 {
		cfg.FailureLimit = def.FailureLimit
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.ProbeQuota <= 0 {
		cfg.ProbeQuota = def.ProbeQuota
	}
	return &Breaker{cfg: cfg, clock: time.Now}
}

// Guard runs fn through the breaker, recording its outcome. An open breaker
// returns ErrBreakerOpen without calling fn.
func Guard[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	if err := b.admit(); err != nil {
		var zero T
		return zero, err
	}
	val, err := fn(ctx)
	b.observe(err)
	return val, err
}

// State returns the breaker's current state, promoting open to probing once
// the cooldown has elapsed.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.cooledDown() {
		return BreakerProbing
	}
	return b.state
}

// Reset forces the breaker closed and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.state
	b.state = BreakerClosed
	b.failStreak = 0
	b.probeWins = 0
	if prev != BreakerClosed && b.cfg.OnTransition != nil {
		b.cfg.OnTransition(prev, BreakerClosed)
	}
}

func (b *Breaker) cooledDown() bool {
	return b.clock().Sub(b.openedAt) >= b.cfg.Cooldown
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if !b.cooledDown() {
			return ErrBreakerOpen
		}
		b.shift(BreakerProbing)
	}
	return nil
}

func (b *Breaker) observe(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		switch b.state {
		case BreakerProbing:
			b.probeWins++
			if b.probeWins >= b.cfg.ProbeQuota {
				b.shift(BreakerClosed)
				b.failStreak = 0
				b.probeWins = 0
			}
		case BreakerClosed:
			b.failStreak = 0
		}
		return
	}

	b.failStreak++
	b.openedAt = b.clock()

	switch b.state {
	case BreakerClosed:
		if b.failStreak >= b.cfg.FailureLimit {
			b.shift(BreakerOpen)
		}
	case BreakerProbing:
		// A failed probe reopens immediately.
		b.shift(BreakerOpen)
		b.probeWins = 0
	}
}

func (b *Breaker) shift(to BreakerState) {
	from := b.state
	b.state = to
	if b.cfg.OnTransition != nil {
		b.cfg.OnTransition(from, to)
	}
}

// HostBreakers hands out one breaker per dataset host so a dead mirror never
// suspends the others.
type HostBreakers struct {
	mu     sync.Mutex
	byHost map[string]*Breaker
	cfg    BreakerConfig
}

// NewHostBreakers creates an empty per-host breaker registry.
func NewHostBreakers(cfg BreakerConfig) *HostBreakers {
	return &HostBreakers{byHost: make(map[string]*Breaker), cfg: cfg}
}

// For returns the breaker for host, creating it on first use.
func (h *HostBreakers) For(host string) *Breaker {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.byHost[host]
	if !ok {
		b = NewBreaker(h.cfg)
		h.byHost[host] = b
	}
	return b
}

// Snapshot reports every known host's breaker state.
func (h *HostBreakers) Snapshot() map[string]BreakerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	states := make(map[string]BreakerState, len(h.byHost))
	for host, b := range h.byHost {
		states[host] = b.State()
	}
	return states
}
