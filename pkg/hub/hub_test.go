package hub

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	h := New("test")
	if h == nil {
		t.Fatal("New returned nil")
	}
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", h.ClientCount())
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	h := New("test")
	go h.Run()

	// Must not block or panic with nobody listening.
	for i := 0; i < 10; i++ {
		h.Broadcast([]byte("ping"))
	}
}

func TestBroadcastJSON(t *testing.T) {
	h := New("test")
	go h.Run()

	if err := h.BroadcastJSON(map[string]string{"type": "voice"}); err != nil {
		t.Errorf("BroadcastJSON failed: %v", err)
	}

	// Unencodable values surface as an error instead of being dropped
	// silently.
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Error("expected an encoding error")
	}
}

func TestRegisterUnregister(t *testing.T) {
	h := New("test")
	go h.Run()

	c := &Client{hub: h, send: make(chan []byte, 1)}
	h.register <- c

	waitFor(t, func() bool { return h.ClientCount() == 1 })

	h.Broadcast([]byte("hello"))
	select {
	case msg := <-c.send:
		if string(msg) != "hello" {
			t.Errorf("message = %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never reached the client")
	}

	h.unregister <- c
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
