package log

import (
	"io"
	"sync"
)

const (
	subscriberBuffer = 256
	backlogSize      = 64
)

// Broadcaster is an io.Writer that copies every log line to its
// subscribers. A subscriber that falls behind loses lines rather than
// blocking the logger. The most recent lines are kept so a new subscriber
// starts with some context.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
	backlog     [][]byte
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan []byte]struct{}),
	}
}

func (b *Broadcaster) Write(p []byte) (int, error) {
	line := append([]byte(nil), p...)

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.backlog) == backlogSize {
		copy(b.backlog, b.backlog[1:])
		b.backlog = b.backlog[:backlogSize-1]
	}
	b.backlog = append(b.backlog, line)

	for ch := range b.subscribers {
		select {
		case ch <- line:
		default:
		}
	}
	return len(p), nil
}

// Subscribe registers a subscriber. The returned channel first receives the
// backlog, then every new line. Call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	b.mu.Lock()
	for _, line := range b.backlog {
		ch <- line
	}
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes ch and closes it. It is a no-op for unknown channels.
func (b *Broadcaster) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

var _ io.Writer = (*Broadcaster)(nil)
