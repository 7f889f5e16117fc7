package events

import (
	"context"
	"errors"
	"sync"

	"github.com/leandro-lugaresi/hub"

	"hologram/internal/library"
)

// ErrSubscriptionClosed is returned by Await when the subscription ends
// before the awaited scan completes.
var ErrSubscriptionClosed = errors.New("subscription closed")

// Subscription is a scoped registration with a Broker.
type Subscription struct {
	broker    *Broker
	sub       hub.Subscription
	out       chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// Events returns the delivery channel. It is closed after Close.
func (s *Subscription) Events() <-chan Event {
	return s.out
}

// Done is closed when Close is called.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close unregisters the subscription. It is idempotent and safe to call
// from any goroutine, including while a publisher is blocked on it.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.broker != nil {
			s.broker.release(s)
		}
	})
}

// pump forwards hub messages until the hub closes the receiver. After
// Close it keeps draining so a blocked Publish can finish.
func (s *Subscription) pump() {
	defer close(s.out)

	for msg := range s.sub.Receiver {
		e, ok := msg.Fields[eventField].(Event)
		if !ok {
			continue
		}
		select {
		case <-s.done:
			continue
		default:
		}
		select {
		case s.out <- e:
		case <-s.done:
		}
	}
}

// Await consumes events until the completion event for scanID arrives and
// returns it. Progress events for scanID are passed to onProgress, which
// may be nil. Events for other scans are ignored.
func (s *Subscription) Await(ctx context.Context, scanID string, onProgress func(library.ScanProgress)) (Event, error) {
	for {
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case e, ok := <-s.out:
			if !ok {
				return Event{}, ErrSubscriptionClosed
			}
			if scanID != "" && e.ScanID != scanID {
				continue
			}
			if e.IsComplete() {
				return e, nil
			}
			if onProgress != nil {
				onProgress(e.Progress)
			}
		}
	}
}
