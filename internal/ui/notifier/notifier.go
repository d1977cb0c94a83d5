// Package notifier broadcasts change pings to SSE handlers.
package notifier

import "sync"

// All subscribes to every topic.
const All = ""

// Notifier pings listeners subscribed to a topic, usually a session id.
// Listeners receive an empty struct and should re-read the state they show.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]string
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan struct{}]string),
	}
}

// Subscribe returns a channel that receives pings for topic.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe(topic string) chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.listeners[ch] = topic
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast pings the listeners of topic and those subscribed to All.
// Non-blocking: if a listener's channel is full, the ping is skipped.
func (n *Notifier) Broadcast(topic string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch, t := range n.listeners {
		if t != topic && t != All {
			continue
		}
		select {
		case ch <- struct{}{}:
		default:
			// Channel full, the listener catches up on its next read
		}
	}
}
