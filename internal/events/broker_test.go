package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hologram/internal/library"
)

func receive(t *testing.T, s *Subscription) Event {
	t.Helper()
	select {
	case e, ok := <-s.Events():
		if !ok {
			t.Fatal("Events channel closed unexpectedly")
		}
		return e
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
	return Event{}
}

func TestPublishSubscribe(t *testing.T) {
	b := NewBroker(4)
	defer b.Close()

	sub := b.Subscribe()
	defer sub.Close()

	b.PublishProgress("scan-1", library.NewScanProgress(library.PhaseExtracting, 1, 3, "/a.jpg"))
	b.Publish(Event{Topic: TopicComplete, ScanID: "scan-1", Outcome: library.OutcomeCompleted})

	first := receive(t, sub)
	if first.Topic != TopicProgress || first.Progress.Current != 1 {
		t.Errorf("Expected progress event with current=1, got %+v", first)
	}
	second := receive(t, sub)
	if !second.IsComplete() || second.Outcome != library.OutcomeCompleted {
		t.Errorf("Expected completion event, got %+v", second)
	}
}

func TestSubscribeTopicFilter(t *testing.T) {
	b := NewBroker(4)
	defer b.Close()

	sub := b.Subscribe(TopicComplete)
	defer sub.Close()

	b.PublishProgress("scan-1", library.ScanProgress{Current: 1})
	b.Publish(Event{Topic: TopicComplete, ScanID: "scan-1"})

	if e := receive(t, sub); !e.IsComplete() {
		t.Errorf("Expected only completion events, got %+v", e)
	}
}

func TestCloseUnblocksPublisher(t *testing.T) {
	b := NewBroker(1)
	defer b.Close()

	sub := b.Subscribe()

	published := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			b.PublishProgress("scan-1", library.ScanProgress{Current: i})
		}
		close(published)
	}()

	// Let the publisher fill the buffers and block.
	time.Sleep(20 * time.Millisecond)
	sub.Close()

	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("Publisher stayed blocked after subscriber closed")
	}

	// Events channel must eventually close.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Events channel was not closed")
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	b := NewBroker(2)
	sub := b.Subscribe()
	sub.Close()
	sub.Close()
	b.Close()
	b.Close()

	// Publishing after close is a no-op.
	b.PublishProgress("scan-1", library.ScanProgress{})

	late := b.Subscribe()
	if _, ok := <-late.Events(); ok {
		t.Error("Expected subscription on closed broker to be closed")
	}
	late.Close()
}

func TestBrokerCloseReleasesSubscribers(t *testing.T) {
	b := NewBroker(2)
	sub := b.Subscribe()

	b.Close()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("Broker.Close did not close subscription")
	}
}

func TestAwait(t *testing.T) {
	b := NewBroker(8)
	defer b.Close()

	sub := b.Subscribe()
	defer sub.Close()

	go func() {
		b.PublishProgress("other", library.ScanProgress{Current: 99})
		for i := 1; i <= 3; i++ {
			b.PublishProgress("scan-1", library.ScanProgress{Current: i})
		}
		b.Publish(Event{Topic: TopicComplete, ScanID: "other"})
		b.Publish(Event{Topic: TopicComplete, ScanID: "scan-1", Outcome: library.OutcomeCancelled})
	}()

	var (
		mu   sync.Mutex
		seen []int
	)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	e, err := sub.Await(ctx, "scan-1", func(p library.ScanProgress) {
		mu.Lock()
		seen = append(seen, p.Current)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if e.Outcome != library.OutcomeCancelled {
		t.Errorf("Expected cancelled outcome, got %q", e.Outcome)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Errorf("Expected progress [1 2 3] for scan-1, got %v", seen)
	}
}

func TestAwaitContextCancelled(t *testing.T) {
	b := NewBroker(2)
	defer b.Close()
	sub := b.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sub.Await(ctx, "scan-1", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Await() error = %v, want context.Canceled", err)
	}
}

func TestAwaitSubscriptionClosed(t *testing.T) {
	b := NewBroker(2)
	sub := b.Subscribe()
	b.Close()

	if _, err := sub.Await(context.Background(), "scan-1", nil); !errors.Is(err, ErrSubscriptionClosed) {
		t.Errorf("Await() error = %v, want ErrSubscriptionClosed", err)
	}
}
