package bus

import (
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan *Message, d time.Duration) (*Message, bool) {
	t.Helper()
	select {
	case m := <-ch:
		return m, true
	case <-time.After(d):
		return nil, false
	}
}

func TestPublishSubscribe(t *testing.T) {
	b := New(4)
	c := b.NewConnection("t")
	sub := c.Subscribe(T("encoder", "m1", "value"))
	defer c.Unsubscribe(sub)

	c.Publish(&Message{Topic: T("encoder", "m1", "value"), Payload: 42})
	m, ok := recv(t, sub.Channel(), 50*time.Millisecond)
	if !ok {
		t.Fatal("expected message")
	}
	if m.Payload != 42 {
		t.Fatalf("payload = %v", m.Payload)
	}
}

func TestWildcardSingleLevel(t *testing.T) {
	b := New(4)
	c := b.NewConnection("t")
	sub := c.Subscribe(T("encoder", Wildcard, "control", Wildcard))
	defer c.Unsubscribe(sub)

	c.Publish(&Message{Topic: T("encoder", "m1", "control", "start")})
	if _, ok := recv(t, sub.Channel(), 50*time.Millisecond); !ok {
		t.Fatal("wildcard should match")
	}

	// Different depth must not match.
	c.Publish(&Message{Topic: T("encoder", "m1", "control")})
	if _, ok := recv(t, sub.Channel(), 10*time.Millisecond); ok {
		t.Fatal("depth mismatch should not match")
	}
}

func TestRetainedReplayOnSubscribe(t *testing.T) {
	b := New(4)
	c := b.NewConnection("t")

	c.Publish(&Message{Topic: T("encoder", "state"), Payload: "ready", Retained: true})

	sub := c.Subscribe(T("encoder", "state"))
	defer c.Unsubscribe(sub)
	m, ok := recv(t, sub.Channel(), 50*time.Millisecond)
	if !ok {
		t.Fatal("expected retained replay")
	}
	if m.Payload != "ready" {
		t.Fatalf("payload = %v", m.Payload)
	}

	// nil payload clears the retained slot.
	c.Publish(&Message{Topic: T("encoder", "state"), Retained: true})
	sub2 := c.Subscribe(T("encoder", "state"))
	defer c.Unsubscribe(sub2)
	if _, ok := recv(t, sub2.Channel(), 10*time.Millisecond); ok {
		t.Fatal("retained slot should have been cleared")
	}
}

func TestDropOldestWhenFull(t *testing.T) {
	b := New(1)
	c := b.NewConnection("t")
	sub := c.Subscribe(T("x"))
	defer c.Unsubscribe(sub)

	c.Publish(&Message{Topic: T("x"), Payload: 1})
	c.Publish(&Message{Topic: T("x"), Payload: 2})

	m, ok := recv(t, sub.Channel(), 50*time.Millisecond)
	if !ok {
		t.Fatal("expected message")
	}
	if m.Payload != 2 {
		t.Fatalf("expected newest message to survive, got %v", m.Payload)
	}
}

func TestDisconnectClosesChannels(t *testing.T) {
	b := New(4)
	c := b.NewConnection("t")
	sub := c.Subscribe(T("x"))
	c.Disconnect()
	if _, open := <-sub.Channel(); open {
		t.Fatal("channel should be closed after Disconnect")
	}
}
