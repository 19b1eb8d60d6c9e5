package events

import (
	"context"
	"sync"

	"jungle/core/types"
)

const (
	defaultHubHistory = 256
	subscriberBuffer  = 32
)

// Update is a committed event tagged with its position in the hub stream.
type Update struct {
	Sequence uint64       `json:"sequence"`
	Event    *types.Event `json:"event"`
}

// Hub fans committed events out to live subscribers and keeps a short
// history so reconnecting clients can resume from a cursor.
type Hub struct {
	mu      sync.Mutex
	seq     uint64
	nextID  uint64
	subs    map[uint64]chan Update
	history []Update
	limit   int
	dropped uint64
}

// NewHub returns a hub retaining up to history updates. Non-positive values
// select the default.
func NewHub(history int) *Hub {
	if history <= 0 {
		history = defaultHubHistory
	}
	return &Hub{subs: make(map[uint64]chan Update), limit: history}
}

// Emit implements the Emitter interface. Slow subscribers miss updates
// rather than stalling the node.
func (h *Hub) Emit(evt Event) {
	if h == nil || evt == nil {
		return
	}
	raw := types.NewEvent(evt.EventType())
	if payload, ok := evt.(Payload); ok {
		if inner := payload.Event(); inner != nil {
			raw = inner
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	update := Update{Sequence: h.seq, Event: raw}
	h.history = append(h.history, update)
	if len(h.history) > h.limit {
		h.history = h.history[len(h.history)-h.limit:]
	}
	for _, sub := range h.subs {
		select {
		case sub <- update:
		default:
			h.dropped++
		}
	}
}

// Subscribe registers a listener. The backlog holds retained updates newer
// than since. The returned cancel func is idempotent and also runs when ctx
// ends.
func (h *Hub) Subscribe(ctx context.Context, since uint64) (<-chan Update, func(), []Update) {
	updates := make(chan Update, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = updates
	backlog := make([]Update, 0, len(h.history))
	for _, entry := range h.history {
		if entry.Sequence > since {
			backlog = append(backlog, entry)
		}
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
			h.mu.Unlock()
		})
	}
	if ctx != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}
	return updates, cancel, backlog
}

// Subscribers reports the number of live listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped reports how many deliveries were skipped because a subscriber
// buffer was full.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
