package agent

import (
	"sync"
	"time"

	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/pkg/timeutil"
)

// Tracker хранит статусы специалистов и планирует возврат в Idle.
//
// Каждый переход сразу отправляется в Sink полным снимком карты.
// Новый вызов Begin для специалиста отменяет его запланированный сброс:
// окно "занят" принадлежит последнему вызову.
type Tracker struct {
	mu       sync.Mutex
	statuses StatusMap
	pending  map[Name]timeutil.Handle
	gen      map[Name]uint64

	clock timeutil.Clock
	sink  notification.Sink

	// guard сериализует отложенные сбросы с остальными точками входа ядра.
	guard sync.Locker
}

// NewTracker создаёт трекер, где все специалисты в Idle.
// guard захватывается на время отложенного сброса; nil - без внешней блокировки.
func NewTracker(clock timeutil.Clock, sink notification.Sink, guard sync.Locker) *Tracker {
	if guard == nil {
		guard = noopLocker{}
	}
	return &Tracker{
		statuses: NewStatusMap(),
		pending:  make(map[Name]timeutil.Handle),
		gen:      make(map[Name]uint64),
		clock:    clock,
		sink:     sink,
		guard:    guard,
	}
}

// Begin переводит специалиста в label, отменяя его отложенный сброс,
// и отправляет снимок статусов.
func (t *Tracker) Begin(name Name, label Label) {
	t.mu.Lock()
	if h, ok := t.pending[name]; ok {
		h.Cancel()
		delete(t.pending, name)
	}
	t.gen[name]++
	t.statuses[name] = label
	snap := t.statuses.Wire()
	t.mu.Unlock()

	t.sink.Emit(notification.AgentStatus{Statuses: snap})
}

// ResetAfter планирует возврат специалиста в Idle через d.
// Сброс, который уже был вытеснен новым Begin, ничего не делает.
func (t *Tracker) ResetAfter(name Name, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h, ok := t.pending[name]; ok {
		h.Cancel()
	}
	gen := t.gen[name]

	t.pending[name] = t.clock.AfterFunc(d, func() {
		t.guard.Lock()
		defer t.guard.Unlock()
		t.fire(name, gen)
	})
}

func (t *Tracker) fire(name Name, gen uint64) {
	t.mu.Lock()
	if t.gen[name] != gen {
		t.mu.Unlock()
		return
	}
	delete(t.pending, name)
	t.statuses[name] = Idle
	snap := t.statuses.Wire()
	t.mu.Unlock()

	t.sink.Emit(notification.AgentStatus{Statuses: snap})
}

// Snapshot возвращает копию текущих статусов.
func (t *Tracker) Snapshot() StatusMap {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statuses.Clone()
}

// Status возвращает текущую метку специалиста.
func (t *Tracker) Status(name Name) Label {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statuses[name]
}

// HasPending возвращает true, если для специалиста запланирован сброс.
func (t *Tracker) HasPending(name Name) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[name]
	return ok
}

// Stop отменяет все запланированные сбросы.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, h := range t.pending {
		h.Cancel()
		delete(t.pending, name)
		t.gen[name]++
	}
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}
