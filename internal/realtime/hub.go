package realtime

import (
	"sync"
	"time"

	"github.com/google/logger"

	"kalyana/internal/models"
)

const DefaultBuffer = 16

// Subscription receives platform updates until it is unsubscribed.
type Subscription struct {
	C  <-chan models.PlatformUpdate
	ch chan models.PlatformUpdate
}

// Hub fans platform updates out to subscribers. Publish never blocks:
// a subscriber whose buffer is full misses the update.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
	now  func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[*Subscription]struct{}),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan models.PlatformUpdate, buffer)
	sub := &Subscription{C: ch, ch: ch}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe closes the subscription channel. Calling it twice is safe.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
}

func (h *Hub) Publish(scope, action, actorRole string) {
	u := models.PlatformUpdate{Scope: scope, Action: action, ActorRole: actorRole, Timestamp: h.now()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- u:
		default:
			logger.Warningf("[realtime][publish] subscriber buffer full, dropped %s/%s", scope, action)
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
