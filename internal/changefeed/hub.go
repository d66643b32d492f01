package changefeed

import "sync"

// Hub fans out per-operator change signals to feed consumers. A signal only
// means "something changed, re-fetch"; publishes into a full buffer are
// dropped so bursts coalesce and no consumer can read it as an event log.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registers a listener for one operator's changes. The returned
// cancel func closes the channel and must be called on teardown.
func (h *Hub) Subscribe(operatorID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[operatorID] == nil {
		h.subs[operatorID] = make(map[chan struct{}]struct{})
	}
	h.subs[operatorID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[operatorID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, operatorID)
			}
		}
	}
	return ch, cancel
}

// Publish signals every listener of the given operator without blocking.
func (h *Hub) Publish(operatorID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[operatorID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
