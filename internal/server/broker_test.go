package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/streettag/api/internal/engine"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("g1")
	defer b.Unsubscribe("g1", ch)

	other := b.Subscribe("g2")
	defer b.Unsubscribe("g2", other)

	b.Publish("g1", engine.Event{Type: engine.EventTagOccurred, GameID: "g1", NewItID: "p2"})

	select {
	case data := <-ch:
		var ev engine.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decoding event: %v", err)
		}
		if ev.Type != engine.EventTagOccurred || ev.NewItID != "p2" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	select {
	case data := <-other:
		t.Fatalf("event leaked to another game's subscriber: %s", data)
	default:
	}
}

func TestBrokerDropsSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("g1")
	defer b.Unsubscribe("g1", ch)

	// Fill the buffer without draining; extra publishes must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish("g1", engine.Event{Type: engine.EventPlayerJoined, GameID: "g1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBrokerUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("g1")
	b.Unsubscribe("g1", ch)

	b.Publish("g1", engine.Event{Type: engine.EventPlayerJoined, GameID: "g1"})

	select {
	case data := <-ch:
		t.Fatalf("received after unsubscribe: %s", data)
	default:
	}
}
