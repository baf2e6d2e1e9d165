package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	h := NewHub()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	a := h.Subscribe(4)
	b := h.Subscribe(4)
	h.Publish("surplus", "created", "provider")

	for _, sub := range []*Subscription{a, b} {
		u := <-sub.C
		require.Equal(t, "surplus", u.Scope)
		require.Equal(t, "created", u.Action)
		require.Equal(t, "provider", u.ActorRole)
		require.Equal(t, fixed, u.Timestamp)
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	slow := h.Subscribe(1)
	fast := h.Subscribe(8)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			h.Publish("allocation", "requested", "ngo")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	require.Len(t, slow.C, 1)
	require.Len(t, fast.C, 5)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(0)
	require.Equal(t, DefaultBuffer, cap(sub.C))
	require.Equal(t, 1, h.Subscribers())

	h.Unsubscribe(sub)
	h.Unsubscribe(sub)
	require.Zero(t, h.Subscribers())

	_, ok := <-sub.C
	require.False(t, ok)

	// publishing with no subscribers is a no-op
	h.Publish("user", "deleted", "admin")
}
