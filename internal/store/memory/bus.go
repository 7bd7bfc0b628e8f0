package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/openforecast/marketd/internal/domain"
)

// EventBus implements domain.EventBus with in-process channel fan-out.
// Subscribers with full buffers drop messages rather than block publishers.
type EventBus struct {
	mu   sync.RWMutex
	subs map[string][]chan []byte
}

// NewEventBus creates an EventBus with no subscribers.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[string][]chan []byte)}
}

// Publish delivers payload to every subscriber whose channel pattern matches.
func (b *EventBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for pattern, subs := range b.subs {
		if !channelMatches(pattern, channel) {
			continue
		}
		for _, ch := range subs {
			select {
			case ch <- payload:
			default:
			}
		}
	}
	return nil
}

// Subscribe returns a channel of payloads published to the given channel.
// A trailing "*" in the channel subscribes to a prefix. The subscription
// ends when the context is cancelled.
func (b *EventBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 128)

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		subs := b.subs[channel]
		for i, c := range subs {
			if c == ch {
				b.subs[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// channelMatches supports exact names and glob-style trailing wildcards.
func channelMatches(pattern, channel string) bool {
	if pattern == channel {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(channel, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

var _ domain.EventBus = (*EventBus)(nil)
