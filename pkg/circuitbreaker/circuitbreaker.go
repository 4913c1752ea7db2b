// Package circuitbreaker stops a notification sink from hammering a broker
// or database that is already down.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the cooldown passes.
	StateOpen
	// StateHalfOpen lets one trial call through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned without calling fn while the breaker is open
// or while a half-open trial is already in flight.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Settings configures a CircuitBreaker.
type Settings struct {
	// Name shows up in state-change logs.
	Name string

	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold int

	// Cooldown is how long the breaker stays open before a trial call.
	Cooldown time.Duration

	// IsFailure decides whether err counts against the sink.
	// Nil counts every error except context cancellation.
	IsFailure func(err error) bool

	// OnStateChange is called with the breaker lock held; keep it short.
	OnStateChange func(name string, from, to State)

	// Now overrides the time source. Nil means time.Now.
	Now func() time.Time
}

// CircuitBreaker counts consecutive failures of one sink.
type CircuitBreaker struct {
	settings Settings

	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
	trialActive bool
}

// New creates a closed breaker. Zero thresholds fall back to 5 failures
// and a 30s cooldown.
func New(s Settings) *CircuitBreaker {
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = 5
	}
	if s.Cooldown <= 0 {
		s.Cooldown = 30 * time.Second
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.IsFailure == nil {
		s.IsFailure = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}
	return &CircuitBreaker{settings: s}
}

// Broker returns the breaker used by the Redis publisher.
func Broker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(Settings{
		Name:             "redis-broker",
		FailureThreshold: 5,
		Cooldown:         15 * time.Second,
		OnStateChange:    onStateChange,
	})
}

// Journal returns the breaker used by the Postgres journal. isFailure
// lets the journal exclude errors that say nothing about the database's
// health, such as constraint violations.
func Journal(isFailure func(error) bool, onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(Settings{
		Name:             "journal",
		FailureThreshold: 3,
		Cooldown:         10 * time.Second,
		IsFailure:        isFailure,
		OnStateChange:    onStateChange,
	})
}

// Execute calls fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	trial, err := cb.admit()
	if err != nil {
		return err
	}

	err = fn(ctx)
	cb.record(trial, err)
	return err
}

// State returns the current position, moving open to half-open once the
// cooldown has passed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && cb.cooledDown() {
		return StateHalfOpen
	}
	return cb.state
}

func (cb *CircuitBreaker) cooledDown() bool {
	return cb.settings.Now().Sub(cb.openedAt) >= cb.settings.Cooldown
}

func (cb *CircuitBreaker) admit() (trial bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return false, nil
	case StateOpen:
		if !cb.cooledDown() {
			return false, ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
	}

	if cb.trialActive {
		return false, ErrCircuitOpen
	}
	cb.trialActive = true
	return true, nil
}

func (cb *CircuitBreaker) record(trial bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial {
		cb.trialActive = false
	}

	if err == nil || !cb.settings.IsFailure(err) {
		cb.failures = 0
		if trial {
			cb.transition(StateClosed)
		}
		return
	}

	cb.failures++
	if trial || cb.failures >= cb.settings.FailureThreshold {
		cb.openedAt = cb.settings.Now()
		cb.transition(StateOpen)
	}
}

func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	if to == StateClosed {
		cb.failures = 0
	}
	if cb.settings.OnStateChange != nil {
		cb.settings.OnStateChange(cb.settings.Name, from, to)
	}
}
