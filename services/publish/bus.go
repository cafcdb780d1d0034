package publish

import "sync"

// Update is one observable task change fanned out to subscribers.
type Update struct {
	TaskID    string `json:"taskId"`
	Platform  string `json:"platform"`
	OldStatus Status `json:"oldStatus"`
	NewStatus Status `json:"newStatus"`
	Progress  int    `json:"progress"`
	Message   string `json:"message,omitempty"`
}

// Bus fans task updates out to in-process subscribers. Sends never block:
// a subscriber that falls behind misses updates rather than stalling the
// registry.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Update]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Update]struct{})}
}

func (b *Bus) Subscribe() chan Update {
	ch := make(chan Update, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Bus) Unsubscribe(ch chan Update) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}

func (b *Bus) Publish(u Update) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- u:
		default:
			// subscriber is behind; drop to avoid blocking the registry
		}
	}
	b.mu.RUnlock()
}
