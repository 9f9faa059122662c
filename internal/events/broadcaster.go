// Package events fans render notifications out to live subscribers.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Rendered announces a newly published map.
type Rendered struct {
	SceneID    string    `json:"scene_id"`
	Parks      int       `json:"parks"`
	FromCache  bool      `json:"from_cache"`
	RenderedAt time.Time `json:"rendered_at"`
}

type Broadcaster struct {
	subscribers map[uint64]chan Rendered
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan Rendered),
	}
}

func (b *Broadcaster) Subscribe() (uint64, <-chan Rendered) {
	id := b.nextID.Add(1)
	ch := make(chan Rendered, 16)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Broadcast(e Rendered) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, ending their streams.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
