package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stage names the pipeline steps in execution order.
type Stage string

const (
	StageFetch      Stage = "fetch"
	StageExtract    Stage = "extract"
	StageChunk      Stage = "chunk"
	StageEmbed      Stage = "embed"
	StageCategorize Stage = "categorize"
	StageCards      Stage = "cards"
	StageDone       Stage = "done"
)

// Event is a status transition emitted while a source is processed.
// Consumers poll or stream these to show progress.
type Event struct {
	SourceID uuid.UUID `json:"source_id"`
	Stage    Stage     `json:"stage"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// Bus is an in-process fan-out of pipeline events. Slow subscribers
// lose events rather than stalling the pipeline.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned cancel func must be
// called when the listener is done.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
