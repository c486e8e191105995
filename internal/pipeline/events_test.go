package pipeline

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()

	ch1, cancel1 := bus.Subscribe()
	ch2, cancel2 := bus.Subscribe()
	defer cancel1()
	defer cancel2()

	id := uuid.New()
	bus.Publish(Event{SourceID: id, Stage: StageFetch, Status: "processing"})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.SourceID != id {
				t.Errorf("subscriber %d got source %s", i, ev.SourceID)
			}
			if ev.At.IsZero() {
				t.Errorf("subscriber %d event missing timestamp", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the event", i)
		}
	}
}

func TestBusSlowSubscriberDropsEvents(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	// Overflow the buffer; Publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Event{SourceID: uuid.New(), Stage: StageEmbed})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	// The buffer holds the first events; the rest were dropped.
	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	if received == 0 || received > 16 {
		t.Errorf("received %d events, want 1..16", received)
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("channel still open after cancel")
	}

	// Publishing after cancel must not panic.
	bus.Publish(Event{SourceID: uuid.New(), Stage: StageDone})

	// A second cancel is a no-op.
	cancel()
}
