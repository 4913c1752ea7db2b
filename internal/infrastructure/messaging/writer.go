package messaging

import (
	"context"
	"io"
	"sync"

	"github.com/campus-agents/campus-hub/internal/domain/notification"
)

// WriterSubscriber writes each notification payload as one JSON line.
// The dashboard wire shape is kept, so the output can be piped to any
// JSON-lines consumer.
type WriterSubscriber struct {
	name string
	mu   sync.Mutex
	w    io.Writer
}

// NewWriterSubscriber creates a subscriber that writes to w.
func NewWriterSubscriber(name string, w io.Writer) *WriterSubscriber {
	return &WriterSubscriber{name: name, w: w}
}

// Name returns the subscriber name.
func (s *WriterSubscriber) Name() string { return s.name }

// Handle writes the payload followed by a newline.
func (s *WriterSubscriber) Handle(_ context.Context, env notification.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := make([]byte, 0, len(env.Payload)+1)
	line = append(line, env.Payload...)
	line = append(line, '\n')
	_, err := s.w.Write(line)
	return err
}
