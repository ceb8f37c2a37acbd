package event

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Sink is where published events land: a Kafka topic in production, an
// in-memory list in tests and development.
type Sink interface {
	Write(ctx context.Context, event Event) error
	Close() error
}

// Publisher emits lease lifecycle events to a sink, either synchronously
// or through a bounded async buffer. Close drains the buffer before
// returning. Async emission drops events when the buffer is full rather
// than blocking the lease operation that produced them.
type Publisher struct {
	sink   Sink
	buffer chan Event
	wg     sync.WaitGroup

	closeOnce sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.buffer = make(chan Event, size)
		}
	}
}

func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit publishes the event. A zero OccurredAt is stamped with the
// current time.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if p.buffer == nil {
		return p.sink.Write(ctx, event)
	}
	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("event buffer full")
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		_ = p.sink.Write(context.Background(), event)
	}
}

// Close drains any buffered events and closes the sink.
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
	return p.sink.Close()
}

// MemorySink records events in memory for tests and development.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemorySink) Close() error { return nil }

// Events returns a snapshot of everything written so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// ByType filters the recorded events.
func (s *MemorySink) ByType(t Type) []Event {
	var out []Event
	for _, e := range s.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
