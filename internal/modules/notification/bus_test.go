// README: Bus tests: single listener per user, replace semantics,
// non-blocking push.
package notification

import (
	"testing"

	"navette/internal/types"
)

func TestSubscribeReplacesListener(t *testing.T) {
	b := NewBus()
	userID := types.ID("u1")

	first := b.Subscribe(userID)
	second := b.Subscribe(userID)

	// The replaced channel is closed.
	if _, open := <-first; open {
		t.Fatal("expected first listener channel to be closed")
	}

	b.Publish(userID, []*Notification{{ID: "n1"}})
	select {
	case list := <-second:
		if len(list) != 1 || list[0].ID != "n1" {
			t.Fatalf("unexpected payload: %+v", list)
		}
	default:
		t.Fatal("expected push on the active listener")
	}
}

func TestPublishWithoutListener(t *testing.T) {
	b := NewBus()
	// Must not block or panic; the event is simply missed.
	b.Publish("nobody", []*Notification{{ID: "n1"}})
}

func TestPublishReplacesStalePush(t *testing.T) {
	b := NewBus()
	userID := types.ID("u1")
	ch := b.Subscribe(userID)

	b.Publish(userID, []*Notification{{ID: "old"}})
	b.Publish(userID, []*Notification{{ID: "new"}})

	list := <-ch
	if len(list) != 1 || list[0].ID != "new" {
		t.Fatalf("expected the newer push to win, got %+v", list)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus()
	userID := types.ID("u1")
	ch := b.Subscribe(userID)
	b.Unsubscribe(userID)

	if _, open := <-ch; open {
		t.Fatal("expected channel closed after unsubscribe")
	}
	if b.Subscribed(userID) {
		t.Fatal("expected user to be unsubscribed")
	}
	b.Publish(userID, nil) // no listener, no-op
}
