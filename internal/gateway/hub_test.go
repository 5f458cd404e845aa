package gateway

import (
	"sync"
	"testing"
)

func newTestClient() *client {
	return &client{
		send: make(chan []byte, sendBufSize),
		done: make(chan struct{}),
	}
}

// Clients dropping mid-broadcast must never crash the hub: the send
// channel is never closed, so a concurrent Broadcast cannot panic on a
// client that is being removed.
func TestHubBroadcastDuringDisconnect(t *testing.T) {
	h := NewHub()

	stop := make(chan struct{})
	var broadcaster sync.WaitGroup
	broadcaster.Add(1)
	go func() {
		defer broadcaster.Done()
		for {
			select {
			case <-stop:
				return
			default:
				h.Broadcast("screening", map[string]int{"subjects": 4})
			}
		}
	}()

	var removals sync.WaitGroup
	for i := 0; i < 500; i++ {
		c := newTestClient()
		if !h.register(c) {
			t.Fatal("register refused on open hub")
		}
		removals.Add(1)
		go func() {
			defer removals.Done()
			h.unregister(c)
		}()
	}
	removals.Wait()
	close(stop)
	broadcaster.Wait()

	if h.Count() != 0 {
		t.Errorf("clients remaining = %d, want 0", h.Count())
	}
}

func TestHubSlowClientRemoved(t *testing.T) {
	h := NewHub()
	c := &client{send: make(chan []byte, 1), done: make(chan struct{})}
	if !h.register(c) {
		t.Fatal("register refused")
	}

	// First broadcast fills the buffer; the second finds it full and
	// drops the client instead of blocking.
	h.Broadcast("screening", "a")
	h.Broadcast("screening", "b")

	if h.Count() != 0 {
		t.Errorf("slow client still registered, count = %d", h.Count())
	}
	select {
	case <-c.done:
	default:
		t.Error("removed client not signalled to stop")
	}
}

func TestHubUnregisterIdempotent(t *testing.T) {
	h := NewHub()
	c := newTestClient()
	if !h.register(c) {
		t.Fatal("register refused")
	}

	h.unregister(c)
	h.unregister(c) // second removal is a no-op
	h.Broadcast("screening", "late")

	if h.Count() != 0 {
		t.Errorf("count = %d, want 0", h.Count())
	}
}

func TestHubCloseRefusesNewClients(t *testing.T) {
	h := NewHub()
	c := newTestClient()
	if !h.register(c) {
		t.Fatal("register refused on open hub")
	}

	h.Close()

	select {
	case <-c.done:
	default:
		t.Error("close did not signal connected client")
	}
	if h.register(newTestClient()) {
		t.Error("closed hub accepted a client")
	}
}
