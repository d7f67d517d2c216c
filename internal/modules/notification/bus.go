// README: In-process pub/sub with at most one listener per user. Pushes
// are best-effort; a listener that is away re-fetches on next mount.
package notification

import (
	"sync"

	"github.com/sirupsen/logrus"

	"navette/internal/types"
)

type Bus struct {
	mu        sync.Mutex
	listeners map[types.ID]chan []*Notification
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[types.ID]chan []*Notification)}
}

// Subscribe registers the user's listener channel. A second subscribe
// for the same user replaces the first; the replaced channel is closed.
func (b *Bus) Subscribe(userID types.ID) <-chan []*Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.listeners[userID]; ok {
		close(old)
	}
	ch := make(chan []*Notification, 1)
	b.listeners[userID] = ch
	return ch
}

func (b *Bus) Unsubscribe(userID types.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.listeners[userID]; ok {
		close(ch)
		delete(b.listeners, userID)
	}
}

func (b *Bus) Subscribed(userID types.ID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.listeners[userID]
	return ok
}

// Publish pushes the user's full current notification list. It never
// blocks: an undelivered earlier push is dropped in favor of the new
// one, and a user with no listener simply misses the event.
func (b *Bus) Publish(userID types.ID, list []*Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.listeners[userID]
	if !ok {
		logrus.WithField("user_id", userID).Debug("notification push with no listener")
		return
	}
	for {
		select {
		case ch <- list:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
