package notification

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// SINK
// ══════════════════════════════════════════════════════════════════════════════

// Sink принимает уведомления от ядра. Вызов не должен блокироваться на
// внешнем I/O; порядок вызовов Emit сохраняется при доставке.
type Sink interface {
	Emit(n Notification)
}

// SinkFunc адаптирует функцию к интерфейсу Sink.
type SinkFunc func(n Notification)

// Emit вызывает f(n).
func (f SinkFunc) Emit(n Notification) { f(n) }

// Discard - Sink, который всё отбрасывает.
var Discard Sink = SinkFunc(func(Notification) {})

// ══════════════════════════════════════════════════════════════════════════════
// RECORDER
// ══════════════════════════════════════════════════════════════════════════════

// Recorder запоминает уведомления в порядке поступления.
// Используется в тестах и в демо-режиме.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// NewRecorder создаёт пустой Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit реализует Sink.
func (r *Recorder) Emit(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All возвращает копию всех уведомлений.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Kinds возвращает последовательность видов.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.items))
	for i, n := range r.items {
		out[i] = n.Kind()
	}
	return out
}

// Messages возвращает тексты agent-message в порядке поступления.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.items {
		if m, ok := n.(AgentMessage); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

// Reset очищает буфер.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// Envelope - уведомление с метаданными доставки для брокера и журнала.
type Envelope struct {
	ID         string          `json:"id"`
	Seq        uint64          `json:"seq"`
	Kind       Kind            `json:"kind"`
	StudentID  string          `json:"studentId,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope упаковывает уведомление. seq задаёт порядок внутри процесса.
func NewEnvelope(seq uint64, n Notification, at time.Time) (Envelope, error) {
	payload, err := Marshal(n)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:         uuid.NewString(),
		Seq:        seq,
		Kind:       n.Kind(),
		StudentID:  StudentOf(n),
		OccurredAt: at.UTC(),
		Payload:    payload,
	}, nil
}

// Decode восстанавливает уведомление из конверта.
func (e Envelope) Decode() (Notification, error) {
	return Unmarshal(e.Payload)
}

// ══════════════════════════════════════════════════════════════════════════════
// JOURNAL
// Реализация находится в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Journal - журнал отправленных уведомлений (только добавление).
type Journal interface {
	// Append сохраняет конверт.
	Append(ctx context.Context, env Envelope) error

	// Recent возвращает последние limit конвертов в порядке Seq.
	Recent(ctx context.Context, limit int) ([]Envelope, error)
}
