package messaging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/campus-agents/campus-hub/internal/domain/notification"
)

type collector struct {
	name string
	mu   sync.Mutex
	seqs []uint64
	envs []notification.Envelope
	err  error
	gate chan struct{}

	entered chan struct{}
}

func (c *collector) Name() string { return c.name }

func (c *collector) Handle(ctx context.Context, env notification.Envelope) error {
	if c.entered != nil {
		select {
		case c.entered <- struct{}{}:
		default:
		}
	}
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seqs = append(c.seqs, env.Seq)
	c.envs = append(c.envs, env)
	return c.err
}

func (c *collector) got() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint64(nil), c.seqs...)
}

type observed struct {
	subscriber string
	kind       notification.Kind
	failed     bool
}

// recordingObserver collects bus observations.
type recordingObserver struct {
	mu         sync.Mutex
	deliveries []observed
	drops      map[string]int
}

func (o *recordingObserver) ObserveDelivery(subscriber string, kind notification.Kind, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deliveries = append(o.deliveries, observed{subscriber: subscriber, kind: kind, failed: err != nil})
}

func (o *recordingObserver) ObserveDrop(subscriber string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.drops == nil {
		o.drops = make(map[string]int)
	}
	o.drops[subscriber]++
}

func (o *recordingObserver) count(subscriber string, failed bool) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, d := range o.deliveries {
		if d.subscriber == subscriber && d.failed == failed {
			n++
		}
	}
	return n
}

func msg(text string) notification.Notification {
	return notification.AgentMessage{Agent: "MentorAgent", Text: text, StudentID: "s1"}
}

func TestBus_OrderedFanOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	at := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	obs := &recordingObserver{}
	bus := NewBus(BusConfig{Now: func() time.Time { return at }, Observer: obs})
	a, b := &collector{name: "a"}, &collector{name: "b"}
	require.NoError(t, bus.Subscribe(a))
	require.NoError(t, bus.Subscribe(b))

	for i := 0; i < 50; i++ {
		bus.Emit(msg("hello"))
	}
	require.NoError(t, bus.Close())

	want := make([]uint64, 50)
	for i := range want {
		want[i] = uint64(i + 1)
	}
	assert.Equal(t, want, a.got())
	assert.Equal(t, want, b.got())

	env := a.envs[0]
	assert.Equal(t, notification.KindAgentMessage, env.Kind)
	assert.Equal(t, "s1", env.StudentID)
	assert.True(t, at.Equal(env.OccurredAt))

	assert.Equal(t, 50, obs.count("a", false))
	assert.Equal(t, 50, obs.count("b", false))
	assert.Equal(t, notification.KindAgentMessage, obs.deliveries[0].kind)
}

func TestBus_SlowSubscriberDoesNotBlockEmit(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(DefaultBusConfig())
	slow := &collector{name: "slow", gate: make(chan struct{})}
	fast := &collector{name: "fast"}
	require.NoError(t, bus.Subscribe(slow))
	require.NoError(t, bus.Subscribe(fast))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Emit(msg("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a slow subscriber")
	}
	require.Eventually(t, func() bool { return len(fast.got()) == 10 }, time.Second, time.Millisecond)

	close(slow.gate)
	require.NoError(t, bus.Close())
	assert.Len(t, slow.got(), 10)
}

func TestBus_FullQueueDropsOldest(t *testing.T) {
	defer goleak.VerifyNone(t)

	obs := &recordingObserver{}
	bus := NewBus(BusConfig{MaxQueue: 2, Observer: obs})
	blocker := &collector{name: "blocked", gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	require.NoError(t, bus.Subscribe(blocker))

	bus.Emit(msg("1"))
	<-blocker.entered
	for i := 0; i < 4; i++ {
		bus.Emit(msg("more"))
	}

	close(blocker.gate)
	require.NoError(t, bus.Close())

	assert.Equal(t, []uint64{1, 4, 5}, blocker.got())
	assert.Equal(t, map[string]int{"blocked": 2}, obs.drops)
}

func TestBus_FailedDeliveriesGoToDeadLetters(t *testing.T) {
	defer goleak.VerifyNone(t)

	obs := &recordingObserver{}
	bus := NewBus(BusConfig{Observer: obs})
	require.NoError(t, bus.Subscribe(&collector{name: "broken", err: errors.New("broker down")}))
	require.NoError(t, bus.Subscribe(SubscriberFunc{ID: "panicky", Fn: func(context.Context, notification.Envelope) error {
		panic("bad subscriber")
	}}))

	bus.Emit(msg("x"))
	require.NoError(t, bus.Close())

	entries := bus.DeadLetters().Entries()
	require.Len(t, entries, 2)
	subs := []string{entries[0].Subscriber, entries[1].Subscriber}
	assert.ElementsMatch(t, []string{"broken", "panicky"}, subs)
	for _, e := range entries {
		if e.Subscriber == "panicky" {
			assert.Contains(t, e.Error, ErrSubscriberPanic.Error())
		}
	}
	assert.Equal(t, 1, obs.count("broken", true))
	assert.Equal(t, 1, obs.count("panicky", true))
}

func TestBus_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(DefaultBusConfig())
	c := &collector{name: "c"}
	require.NoError(t, bus.Subscribe(c))
	assert.ErrorIs(t, bus.Subscribe(&collector{name: "c"}), ErrDuplicateSubscriber)
	assert.Error(t, bus.Subscribe(nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Run(ctx) }()
	cancel()
	require.NoError(t, <-done)

	bus.Emit(msg("late"))
	assert.Empty(t, c.got())
	assert.ErrorIs(t, bus.Subscribe(&collector{name: "d"}), ErrBusClosed)
	assert.NoError(t, bus.Close())
}

func TestWriterSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)

	var buf bytes.Buffer
	bus := NewBus(DefaultBusConfig())
	require.NoError(t, bus.Subscribe(NewWriterSubscriber("stdout", &buf)))

	bus.Emit(notification.AgentStatus{Statuses: map[string]string{"ProfessorAgent": "idle"}})
	bus.Emit(msg("hi"))
	require.NoError(t, bus.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"type":"agent-status","data":{"ProfessorAgent":"idle"}}`, lines[0])
	assert.JSONEq(t, `{"type":"agent-message","agent":"MentorAgent","message":"hi","studentId":"s1"}`, lines[1])
}
