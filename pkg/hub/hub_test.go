package hub

import (
	"context"
	"testing"
	"time"
)

func TestBroadcast_NeverBlocks(t *testing.T) {
	h := New("test")
	// No Run loop consuming: fill the channel past capacity.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			h.Broadcast(NewBinaryMessage([]byte{1}))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked with a full channel")
	}
}

func TestBroadcastJSON_EncodeError(t *testing.T) {
	h := New("test")
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Error("expected encode error for unmarshalable value")
	}
}

// stoppedHub returns a hub whose Run loop has already exited.
func stoppedHub(t *testing.T) *Hub {
	t.Helper()
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx)
	}()
	<-done
	return h
}

func TestDetach_AfterShutdownDoesNotBlock(t *testing.T) {
	h := stoppedHub(t)
	c := &Client{hub: h, send: make(chan Message, 1)}

	detached := make(chan struct{})
	go func() {
		defer close(detached)
		c.detach()
	}()

	select {
	case <-detached:
	case <-time.After(2 * time.Second):
		t.Fatal("detach blocked after hub shutdown")
	}
}

func TestNewClient_AfterShutdownDoesNotBlock(t *testing.T) {
	h := stoppedHub(t)

	registered := make(chan struct{})
	go func() {
		defer close(registered)
		NewClient(h, nil)
	}()

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("registration blocked after hub shutdown")
	}
	if h.ClientCount() != 0 {
		t.Errorf("stopped hub must not accept clients, got %d", h.ClientCount())
	}
}

func TestClient_Queue(t *testing.T) {
	h := New("test")
	c := &Client{hub: h, send: make(chan Message, 2)}

	if !c.Queue(NewJSONMessage([]byte(`{"frame":1}`))) {
		t.Error("expected first queue to succeed")
	}
	if !c.Queue(NewJSONMessage([]byte(`{"frame":2}`))) {
		t.Error("expected second queue to succeed")
	}
	if c.Queue(NewJSONMessage([]byte(`{"frame":3}`))) {
		t.Error("expected queue to fail on a full buffer")
	}

	// Queued messages come out in order ahead of anything broadcast later.
	first := <-c.send
	if string(first.Data) != `{"frame":1}` {
		t.Errorf("unexpected first message: %s", first.Data)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx)
	}()

	h.Broadcast(NewJSONMessage([]byte(`{}`)))
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop on cancel")
	}

	if h.ClientCount() != 0 {
		t.Errorf("expected no clients, got %d", h.ClientCount())
	}
}
