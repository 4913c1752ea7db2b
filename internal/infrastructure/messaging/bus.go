// Package messaging fans notifications out to observers: the dashboard
// broker, the audit journal and local writers.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBSCRIBER
// ══════════════════════════════════════════════════════════════════════════════

// Subscriber receives every envelope the bus accepts, in emission order.
type Subscriber interface {
	Name() string
	Handle(ctx context.Context, env notification.Envelope) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc struct {
	ID string
	Fn func(ctx context.Context, env notification.Envelope) error
}

// Name returns the subscriber id.
func (s SubscriberFunc) Name() string { return s.ID }

// Handle calls Fn.
func (s SubscriberFunc) Handle(ctx context.Context, env notification.Envelope) error {
	return s.Fn(ctx, env)
}

// ══════════════════════════════════════════════════════════════════════════════
// BUS
// ══════════════════════════════════════════════════════════════════════════════

// Bus is a notification.Sink that wraps each notification in an envelope
// and hands it to every subscriber through a dedicated ordered queue.
// Emit never waits for a subscriber; a slow subscriber only delays itself.
type Bus struct {
	mu      sync.RWMutex
	subs    []*subscription
	closed  bool
	seq     atomic.Uint64
	now     func() time.Time
	logger   *logger.Logger
	observer BusObserver
	dlq      *DeadLetterQueue

	maxQueue       int
	handlerTimeout time.Duration
	wg             sync.WaitGroup
}

// BusObserver receives per-subscriber delivery outcomes. The Prometheus
// metrics in internal/infrastructure/observability implement it.
type BusObserver interface {
	// ObserveDelivery is called after every Handle; err is nil on success.
	ObserveDelivery(subscriber string, kind notification.Kind, d time.Duration, err error)

	// ObserveDrop is called when a full queue evicts its oldest envelope.
	ObserveDrop(subscriber string)
}

type nopObserver struct{}

func (nopObserver) ObserveDelivery(string, notification.Kind, time.Duration, error) {}
func (nopObserver) ObserveDrop(string) {}

// BusConfig contains configuration for Bus.
type BusConfig struct {
	// MaxQueue bounds each subscriber queue. When full, the oldest envelope
	// is dropped (default: 1024).
	MaxQueue int

	// HandlerTimeout bounds one Handle call (default: 5s).
	HandlerTimeout time.Duration

	// DeadLetterSize bounds the failed-delivery buffer (default: 256).
	DeadLetterSize int

	// Now overrides the envelope timestamp source. Nil means time.Now.
	Now func() time.Time

	// Observer is told about every delivery and queue drop. Optional.
	Observer BusObserver

	Logger *logger.Logger
}

// DefaultBusConfig returns sensible defaults.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		MaxQueue:       1024,
		HandlerTimeout: 5 * time.Second,
		DeadLetterSize: 256,
	}
}

// NewBus creates a bus with no subscribers.
func NewBus(config BusConfig) *Bus {
	if config.MaxQueue <= 0 {
		config.MaxQueue = 1024
	}
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = 5 * time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Observer == nil {
		config.Observer = nopObserver{}
	}

	return &Bus{
		now:            config.Now,
		logger:         config.Logger.With(logger.Component("notification_bus")),
		observer:       config.Observer,
		dlq:            NewDeadLetterQueue(config.DeadLetterSize),
		maxQueue:       config.MaxQueue,
		handlerTimeout: config.HandlerTimeout,
	}
}

// Subscribe attaches a subscriber and starts its delivery worker.
func (b *Bus) Subscribe(sub Subscriber) error {
	if sub == nil {
		return errors.New("subscriber cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	for _, s := range b.subs {
		if s.sub.Name() == sub.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicateSubscriber, sub.Name())
		}
	}

	s := &subscription{sub: sub, notify: make(chan struct{}, 1)}
	b.subs = append(b.subs, s)

	b.wg.Add(1)
	go b.run(s)

	b.logger.Debug("subscriber attached", logger.String("subscriber", sub.Name()))
	return nil
}

// Emit implements notification.Sink. Notifications emitted after Close
// are dropped.
func (b *Bus) Emit(n notification.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("emit on closed bus", logger.String("kind", kindOf(n)))
		return
	}

	env, err := notification.NewEnvelope(b.seq.Add(1), n, b.now())
	if err != nil {
		b.logger.Error("envelope failed", logger.Err(err))
		return
	}

	for _, s := range b.subs {
		if dropped := s.enqueue(env, b.maxQueue); dropped {
			b.observer.ObserveDrop(s.sub.Name())
			b.logger.Warn("subscriber queue full, dropped oldest",
				logger.String("subscriber", s.sub.Name()),
			)
		}
	}
}

// Close stops accepting notifications, drains every queue and waits for
// the workers to finish.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
	b.wg.Wait()

	b.logger.Info("notification bus closed", logger.Int64("published", int64(b.seq.Load())))
	return nil
}

// Run blocks until ctx is done, then closes the bus.
func (b *Bus) Run(ctx context.Context) error {
	<-ctx.Done()
	return b.Close()
}

// DeadLetters returns the failed-delivery buffer.
func (b *Bus) DeadLetters() *DeadLetterQueue {
	return b.dlq
}

func (b *Bus) run(s *subscription) {
	defer b.wg.Done()

	for {
		batch, closing := s.take()
		for _, env := range batch {
			b.deliver(s.sub, env)
		}
		if len(batch) > 0 {
			continue
		}
		if closing {
			return
		}
		<-s.notify
	}
}

func (b *Bus) deliver(sub Subscriber, env notification.Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), b.handlerTimeout)
	defer cancel()

	start := time.Now()
	err := safeHandle(ctx, sub, env)
	b.observer.ObserveDelivery(sub.Name(), env.Kind, time.Since(start), err)

	if err == nil {
		return
	}

	b.logger.Error("delivery failed",
		logger.String("subscriber", sub.Name()),
		logger.String("kind", env.Kind.String()),
		logger.F("seq", env.Seq),
		logger.Err(err),
	)
	b.dlq.Add(DeadLetterEntry{
		Subscriber: sub.Name(),
		Envelope:   env,
		Error:      err.Error(),
		FailedAt:   time.Now(),
	})
}

func safeHandle(ctx context.Context, sub Subscriber, env notification.Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSubscriberPanic, r)
		}
	}()
	return sub.Handle(ctx, env)
}

func kindOf(n notification.Notification) string {
	if n == nil {
		return ""
	}
	return n.Kind().String()
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBSCRIPTION QUEUE
// ══════════════════════════════════════════════════════════════════════════════

type subscription struct {
	sub    Subscriber
	notify chan struct{}

	mu      sync.Mutex
	queue   []notification.Envelope
	closing bool
}

// enqueue appends env and reports whether the oldest entry was dropped.
func (s *subscription) enqueue(env notification.Envelope, max int) bool {
	s.mu.Lock()
	dropped := false
	if len(s.queue) >= max {
		s.queue = s.queue[1:]
		dropped = true
	}
	s.queue = append(s.queue, env)
	s.mu.Unlock()

	s.signal()
	return dropped
}

func (s *subscription) take() ([]notification.Envelope, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.queue
	s.queue = nil
	return batch, s.closing
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.signal()
}

func (s *subscription) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetterEntry is a delivery that failed.
type DeadLetterEntry struct {
	Subscriber string
	Envelope   notification.Envelope
	Error      string
	FailedAt   time.Time
}

// DeadLetterQueue keeps the most recent failed deliveries.
type DeadLetterQueue struct {
	mu      sync.RWMutex
	entries []DeadLetterEntry
	maxSize int
}

// NewDeadLetterQueue creates a new dead letter queue.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &DeadLetterQueue{maxSize: maxSize}
}

// Add adds an entry, evicting the oldest at capacity.
func (q *DeadLetterQueue) Add(entry DeadLetterEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)
}

// Entries returns a copy of all entries, oldest first.
func (q *DeadLetterQueue) Entries() []DeadLetterEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]DeadLetterEntry, len(q.entries))
	copy(result, q.entries)
	return result
}

// Size returns the current queue size.
func (q *DeadLetterQueue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrBusClosed is returned when subscribing to a closed bus.
	ErrBusClosed = errors.New("notification bus is closed")

	// ErrDuplicateSubscriber is returned when a subscriber name is reused.
	ErrDuplicateSubscriber = errors.New("subscriber already attached")

	// ErrSubscriberPanic wraps a recovered subscriber panic.
	ErrSubscriberPanic = errors.New("subscriber panicked")
)
