package services

import "testing"

func TestHubFanOut(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.Publish(Event{Type: "notification.created", Data: "x"})

	for _, ch := range []chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Type != "notification.created" {
				t.Fatalf("unexpected event: %+v", ev)
			}
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}

	hub.Unsubscribe(a)
	if _, open := <-a; open {
		t.Fatal("unsubscribed channel should be closed")
	}

	// Publishing after an unsubscribe must not panic.
	hub.Publish(Event{Type: "user.updated"})
	hub.Unsubscribe(b)
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	for i := 0; i < 40; i++ {
		hub.Publish(Event{Type: "ping"})
	}

	// The buffer holds 16; the rest were dropped, not blocked on.
	if n := len(ch); n != 16 {
		t.Fatalf("expected a full buffer of 16 got %d", n)
	}
}
