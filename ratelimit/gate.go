/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/dexkit/go-dexscreener/log"
)

// Errors returned by NewGate when the gate is misconfigured.
var (
	ErrInvalidMaxCalls = errors.New("max calls must be positive")
	ErrInvalidPeriod   = errors.New("period must be positive")
)

// GateOpts represents options for the Gate.
type GateOpts struct {
	// Name identifies the gate in logs and metrics (e.g. rate tier name).
	Name string

	// Logger is used for logging throttled admissions.
	// By default, a disabled logger is used.
	Logger log.FieldLogger

	// MetricsCollector collects admission statistics.
	// It can be nil, in this case, metrics will be disabled.
	MetricsCollector GateMetricsCollector
}

// Gate throttles calls so that no more than MaxCalls of them are admitted within a rolling Period.
// It's safe for concurrent use by any number of goroutines.
type Gate struct {
	name     string
	maxCalls int
	period   time.Duration

	// admit is a one-slot semaphore that serializes admission decisions.
	// It's held while the admitted caller waits for quota, so other callers queue behind it.
	admit chan struct{}

	mu       sync.Mutex
	calls    timestampRing
	inFlight int
	released chan struct{} // closed and replaced on every release

	now   func() time.Time
	sleep func(time.Duration)

	logger  log.FieldLogger
	metrics GateMetricsCollector
}

// NewGate creates a new Gate that admits at most maxCalls calls within period.
func NewGate(maxCalls int, period time.Duration) (*Gate, error) {
	return NewGateWithOpts(maxCalls, period, GateOpts{})
}

// MustGate creates a new Gate and panics if the arguments are invalid.
func MustGate(maxCalls int, period time.Duration) *Gate {
	g, err := NewGate(maxCalls, period)
	if err != nil {
		panic(err)
	}
	return g
}

// NewGateWithOpts creates a new Gate with the specified options.
func NewGateWithOpts(maxCalls int, period time.Duration, opts GateOpts) (*Gate, error) {
	if maxCalls <= 0 {
		return nil, fmt.Errorf("new gate %q: %w", opts.Name, ErrInvalidMaxCalls)
	}
	if period <= 0 {
		return nil, fmt.Errorf("new gate %q: %w", opts.Name, ErrInvalidPeriod)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledGateMetrics{}
	}
	return &Gate{
		name:     opts.Name,
		maxCalls: maxCalls,
		period:   period,
		admit:    make(chan struct{}, 1),
		calls:    newTimestampRing(maxCalls + 1),
		released: make(chan struct{}),
		now:      time.Now,
		sleep:    time.Sleep,
		logger:   opts.Logger,
		metrics:  opts.MetricsCollector,
	}, nil
}

// Name returns the gate name.
func (g *Gate) Name() string {
	return g.name
}

// MaxCalls returns the quota ceiling per period.
func (g *Gate) MaxCalls() int {
	return g.maxCalls
}

// Period returns the rolling window length.
func (g *Gate) Period() time.Duration {
	return g.period
}

// Len returns the number of recorded calls that are still relevant for admission decisions.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls.Len()
}

// Acquire blocks until a call may be performed without exceeding the quota.
// The returned Admission must be released when the call is done (successfully or not).
func (g *Gate) Acquire() *Admission {
	g.admit <- struct{}{}
	defer func() { <-g.admit }()

	startedAt := g.now()
	throttled := false
	for {
		g.mu.Lock()
		if g.calls.Len()+g.inFlight < g.maxCalls {
			g.inFlight++
			inFlight := g.inFlight
			g.mu.Unlock()
			return g.newAdmission(startedAt, inFlight, throttled)
		}

		throttled = true
		if g.inFlight > 0 {
			// Wait for some of the in-flight calls to be recorded before deciding.
			released := g.released
			g.mu.Unlock()
			<-released
			continue
		}

		// The window is full of recorded calls: wait out what remains of the period
		// measured from the span between the oldest and the newest of them.
		sleepTime := g.period - g.calls.span()
		g.inFlight++
		inFlight := g.inFlight
		g.mu.Unlock()

		if sleepTime > 0 {
			g.logger.Debug("request gate is throttling the call",
				log.String("gate", g.name),
				log.Int("max_calls", g.maxCalls),
				log.Duration("period", g.period),
				log.Duration("sleep", sleepTime),
			)
			g.sleep(sleepTime)
		}
		return g.newAdmission(startedAt, inFlight, throttled)
	}
}

// AcquireAsync returns a channel that receives the Admission as soon as the call is admitted.
// The channel is buffered, so the admission is never lost. The receiver owns it and must release it.
func (g *Gate) AcquireAsync() <-chan *Admission {
	admCh := make(chan *Admission, 1)
	go func() {
		admCh <- g.Acquire()
	}()
	return admCh
}

// Do acquires the gate, calls fn and releases the gate even if fn fails or panics.
// The error returned by fn is passed through unchanged.
func (g *Gate) Do(fn func() error) error {
	adm := g.Acquire()
	defer adm.Release()
	return fn()
}

// DoAsync runs Do in a separate goroutine and returns a buffered channel receiving fn's result.
func (g *Gate) DoAsync(fn func() error) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Do(fn)
	}()
	return errCh
}

func (g *Gate) newAdmission(startedAt time.Time, inFlight int, throttled bool) *Admission {
	admittedAt := g.now()
	waited := admittedAt.Sub(startedAt)
	g.metrics.ObserveAdmission(g.name, waited, throttled)
	g.metrics.SetInFlight(g.name, inFlight)
	return &Admission{gate: g, AdmittedAt: admittedAt, Waited: waited, Throttled: throttled}
}

func (g *Gate) record() {
	g.mu.Lock()
	g.calls.push(g.now())
	for g.calls.Len() > 1 && g.calls.span() >= g.period {
		g.calls.popOldest()
	}
	g.inFlight--
	inFlight := g.inFlight
	close(g.released)
	g.released = make(chan struct{})
	g.mu.Unlock()

	g.metrics.IncReleases(g.name)
	g.metrics.SetInFlight(g.name, inFlight)
}

// Admission is a reserved slot for one call admitted by the Gate.
type Admission struct {
	gate     *Gate
	released atomic.Bool

	// AdmittedAt is the moment the call was admitted.
	AdmittedAt time.Time

	// Waited is how long the caller waited for the admission.
	Waited time.Duration

	// Throttled reports whether the quota was exhausted when the caller asked for the admission.
	Throttled bool
}

// Release records the call in the gate. Only the first call has an effect.
func (a *Admission) Release() {
	if a == nil || !a.released.CompareAndSwap(false, true) {
		return
	}
	a.gate.record()
}
