package board

import (
	"sync"
	"time"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls more than this many events behind starts losing events.
const subscriberBuffer = 64

// notifier fans change events out to subscribers without ever blocking the
// producer. Shared by the memory and postgres boards.
type notifier struct {
	mu   sync.Mutex
	subs []chan ChangeEvent
}

func (n *notifier) subscribe() <-chan ChangeEvent {
	ch := make(chan ChangeEvent, subscriberBuffer)
	n.mu.Lock()
	n.subs = append(n.subs, ch)
	n.mu.Unlock()
	return ch
}

// broadcast delivers an event to every current subscriber. Full channels
// are skipped — report generation re-derives authoritative state from the
// board, so missed events never affect correctness.
func (n *notifier) broadcast(t EventType, entityID string) {
	ev := ChangeEvent{Type: t, EntityID: entityID, At: time.Now().UTC()}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
