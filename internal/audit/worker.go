package audit

import (
	"context"
	"errors"
)

// ErrInboxFull is returned when the publisher buffer is saturated and an event
// was dropped.
var ErrInboxFull = errors.New("audit inbox full")

// StoreSink adapts a Store to the Publisher interface for worker fan-in.
type StoreSink struct {
	store Store
}

func NewStoreSink(store Store) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Emit(ctx context.Context, event Event) error {
	return s.store.Append(ctx, event)
}

// ChannelPublisher decouples event emission from persistence: Emit enqueues
// and returns immediately, the Worker drains. When the inbox is full the event
// is dropped rather than blocking a verification request.
type ChannelPublisher struct {
	inbox chan Event
}

func NewChannelPublisher(buffer int) *ChannelPublisher {
	return &ChannelPublisher{inbox: make(chan Event, buffer)}
}

func (p *ChannelPublisher) Emit(ctx context.Context, event Event) error {
	select {
	case p.inbox <- event:
		return nil
	default:
		return ErrInboxFull
	}
}

// Inbox exposes the receive side for the worker.
func (p *ChannelPublisher) Inbox() <-chan Event { return p.inbox }

// Worker consumes audit events from a channel and hands them to a sink. It
// keeps background processing testable without wiring queue implementations.
type Worker struct {
	sink  Publisher
	inbox <-chan Event
}

func NewWorker(sink Publisher, inbox <-chan Event) *Worker {
	return &Worker{sink: sink, inbox: inbox}
}

// Run drains the inbox until the context is cancelled. Sink errors stop the
// worker so the supervisor can decide whether to restart.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Emit(ctx, event); err != nil {
				return err
			}
		}
	}
}
