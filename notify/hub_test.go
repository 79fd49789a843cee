package notify

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubRegisterPublishUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{
		Send:  make(chan []byte, 10),
		Topic: "a@x.com",
	}
	hub.register <- client

	hub.Publish(Event{Action: "paid", BookingID: "b1", TrackingID: "SD-ABC123"}, "a@x.com")

	select {
	case got := <-client.Send:
		var ev Event
		if err := json.Unmarshal(got, &ev); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if ev.Action != "paid" || ev.BookingID != "b1" {
			t.Fatalf("unexpected event %+v", ev)
		}
		if ev.Timestamp == 0 {
			t.Fatal("expected a timestamp to be stamped")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for event")
	}

	hub.unregister <- client
}

func TestHubPublishToUninvolvedTopic(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{
		Send:  make(chan []byte, 10),
		Topic: "a@x.com",
	}
	hub.register <- client

	hub.Publish(Event{Action: "created", BookingID: "b2"}, "someone-else@x.com")

	select {
	case got := <-client.Send:
		t.Fatalf("expected no delivery, got %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

// A subscriber that stops draining gets dropped on the broadcast path,
// but its reader loop still unregisters on the way out. The second close
// must be a no-op, and the hub must keep serving other subscribers.
func TestHubUnregisterAfterSlowConsumerDrop(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	stalled := &Client{
		Send:  make(chan []byte), // unbuffered and never read
		Topic: "a@x.com",
	}
	hub.register <- stalled

	// Publish blocks until the hub picks the message up, so the drop has
	// happened by the time it returns.
	hub.Publish(Event{Action: "created", BookingID: "b1"}, "a@x.com")
	hub.unregister <- stalled

	live := &Client{
		Send:  make(chan []byte, 1),
		Topic: "a@x.com",
	}
	hub.register <- live
	hub.Publish(Event{Action: "paid", BookingID: "b1"}, "a@x.com")

	select {
	case <-live.Send:
	case <-time.After(1 * time.Second):
		t.Fatal("hub stopped delivering after a dropped client unregistered")
	}
}

func TestHubPublishSkipsEmptyTopic(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	// bookings without a decorator publish with an empty decorator topic;
	// must not block or panic
	hub.Publish(Event{Action: "created", BookingID: "b3"}, "a@x.com", "")
}
