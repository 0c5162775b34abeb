// Package poll implements the bounded retry-with-polling engine used to wait
// for asynchronously computed artifacts. The backend has no push channel, so
// a distinguished not-ready error (HTTP 404 semantics) is the only progress
// signal; polling is bounded both by elapsed wall-clock time and by an
// attempt ceiling, since either bound alone is insufficient (clock skew vs. a
// pathologically small interval).
package poll

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/decklens/decklens-cli/pkg/deckapi"
)

const (
	defaultInterval    = 3 * time.Second
	defaultMaxDuration = 5 * time.Minute
)

// Terminal polling errors. Both stop the poller with status StatusError.
var (
	ErrTimeout     = eris.New("poll: timed out waiting for artifact")
	ErrMaxAttempts = eris.New("poll: maximum poll attempts exceeded")
)

// Status is the lifecycle status of a polling session.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// FetchFunc fetches one artifact for a deck. It returns deckapi.ErrNotReady
// while the artifact is still being computed; any other error is terminal.
type FetchFunc[T any] func(ctx context.Context, deckID string) (T, error)

// Option configures a Poller.
type Option func(*config)

type config struct {
	interval    time.Duration
	maxDuration time.Duration
	clock       func() time.Time
	log         *zap.Logger
}

// WithInterval overrides the delay between poll attempts.
func WithInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithMaxDuration overrides the total polling time budget.
func WithMaxDuration(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.maxDuration = d
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithLogger overrides the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// Snapshot is the externally observable state of a polling session.
type Snapshot[T any] struct {
	Data       T
	Status     Status
	Err        error
	Polling    bool
	RetryCount int
}

// Poller repeatedly attempts a fetch until it succeeds, fails terminally, or
// exceeds its time or attempt budget. An empty deck id disables the poller
// entirely: no fetches are ever issued.
//
// All state transitions are guarded by a session generation counter, so a
// fetch that resolves after Stop or Refetch cannot mutate state. In-flight
// requests cannot be aborted; their results are ignored instead.
type Poller[T any] struct {
	fetch  FetchFunc[T]
	deckID string
	cfg    config

	mu         sync.Mutex
	ctx        context.Context
	data       T
	status     Status
	err        error
	polling    bool
	retryCount int
	startTime  time.Time
	gen        uint64
	timer      *time.Timer
}

// New creates a poller for one artifact. Call Start to begin fetching.
func New[T any](deckID string, fetch FetchFunc[T], opts ...Option) *Poller[T] {
	cfg := config{
		interval:    defaultInterval,
		maxDuration: defaultMaxDuration,
		clock:       time.Now,
		log:         zap.L(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Poller[T]{
		fetch:  fetch,
		deckID: deckID,
		cfg:    cfg,
		status: StatusLoading,
	}
}

// Start issues an immediate fetch attempt; the first attempt is never
// rate-limited by the interval. No-op when the poller is disabled.
func (p *Poller[T]) Start(ctx context.Context) {
	if p.deckID == "" || p.fetch == nil {
		return
	}
	p.mu.Lock()
	p.ctx = ctx
	gen := p.gen
	p.mu.Unlock()

	go p.attempt(ctx, gen)
}

// Refetch resets retry accounting and starts a fresh session with an
// immediate fetch attempt. Any in-flight result from the previous session is
// discarded.
func (p *Poller[T]) Refetch() {
	if p.deckID == "" || p.fetch == nil {
		return
	}
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.stopTimerLocked()
	var zero T
	p.data = zero
	p.status = StatusLoading
	p.err = nil
	p.polling = false
	p.retryCount = 0
	p.startTime = time.Time{}
	ctx := p.ctx
	p.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	go p.attempt(ctx, gen)
}

// Stop cancels any scheduled attempt and invalidates the current session so
// that a late-resolving fetch cannot mutate state.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.stopTimerLocked()
	p.polling = false
}

// Snapshot returns the current observable state.
func (p *Poller[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot[T]{
		Data:       p.data,
		Status:     p.status,
		Err:        p.err,
		Polling:    p.polling,
		RetryCount: p.retryCount,
	}
}

// maxAttempts is the attempt ceiling: ceil(maxDuration / interval).
func (p *Poller[T]) maxAttempts() int {
	return int(math.Ceil(float64(p.cfg.maxDuration) / float64(p.cfg.interval)))
}

func (p *Poller[T]) attempt(ctx context.Context, gen uint64) {
	data, err := p.fetch(ctx, p.deckID)

	p.mu.Lock()
	defer p.mu.Unlock()

	// Stale session: Stop or Refetch happened while the fetch was in flight.
	if gen != p.gen || ctx.Err() != nil {
		return
	}

	if err == nil {
		p.data = data
		p.status = StatusReady
		p.err = nil
		p.polling = false
		p.stopTimerLocked()
		return
	}

	if !errors.Is(err, deckapi.ErrNotReady) {
		p.status = StatusError
		p.err = err
		p.polling = false
		return
	}

	p.retryCount++
	now := p.cfg.clock()
	// Elapsed time is measured from the first not-ready response, not from
	// Start.
	if p.startTime.IsZero() {
		p.startTime = now
	}

	if now.Sub(p.startTime) > p.cfg.maxDuration {
		p.status = StatusError
		p.err = ErrTimeout
		p.polling = false
		return
	}
	if p.retryCount >= p.maxAttempts() {
		p.status = StatusError
		p.err = ErrMaxAttempts
		p.polling = false
		return
	}

	p.polling = true
	p.cfg.log.Debug("artifact not ready, scheduling retry",
		zap.String("deck_id", p.deckID),
		zap.Int("retry_count", p.retryCount),
	)
	p.timer = time.AfterFunc(p.cfg.interval, func() {
		p.attempt(ctx, gen)
	})
}

func (p *Poller[T]) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
