package repository

import (
	"sync"

	"go.uber.org/zap"
)

// hub fans appended records out to in-process subscribers.
type hub struct {
	mu     sync.Mutex
	subs   map[Collection]map[int]chan Record
	nextID int
	logger *zap.Logger
}

func newHub(logger *zap.Logger) *hub {
	return &hub{subs: make(map[Collection]map[int]chan Record), logger: logger}
}

func (h *hub) subscribe(c Collection, buffer int) (<-chan Record, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[c] == nil {
		h.subs[c] = make(map[int]chan Record)
	}
	id := h.nextID
	h.nextID++
	ch := make(chan Record, buffer)
	h.subs[c][id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[c][id]; ok {
			delete(h.subs[c], id)
			close(sub)
		}
	}
}

// publish never blocks. A subscriber whose buffer is full is closed and
// removed so its reader can resubscribe and replay from the backlog.
func (h *hub) publish(rec Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs[rec.Collection] {
		select {
		case ch <- rec:
		default:
			delete(h.subs[rec.Collection], id)
			close(ch)
			h.logger.Warn("Subscriber lagging, closing its stream",
				zap.String("collection", string(rec.Collection)),
				zap.Int("subscriber", id),
				zap.String("record_id", rec.ID()))
		}
	}
}
