package notify

import (
	"context"
	"sync"
)

// MemoryNotifier records notifications in memory, for tests and local runs.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) Send(_ context.Context, notification Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, notification)

	return nil
}

// Sent returns a copy of every notification delivered so far.
func (n *MemoryNotifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Notification, len(n.sent))
	copy(out, n.sent)

	return out
}
