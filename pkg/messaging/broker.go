package messaging

import (
	"fmt"
	"sync"
)

// SimpleBroker implements the Broker interface
// subscribers is a map where keys are observer IDs and values are channels
// for receiving episode results
type SimpleBroker struct {
	subscribers map[string]chan<- EpisodeResult
	mu          sync.RWMutex
}

// NewBroker creates a new episode-result broker
func NewBroker() *SimpleBroker {
	return &SimpleBroker{
		subscribers: make(map[string]chan<- EpisodeResult),
	}
}

// Publish delivers a result to every subscriber
func (b *SimpleBroker) Publish(res EpisodeResult) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		// Non-blocking send
		select {
		case ch <- res:
			// Result delivered successfully
		default:
			// Channel is full
			return fmt.Errorf("subscriber %s's channel is full", id)
		}
	}

	return nil
}

// Subscribe registers an observer to receive episode results
func (b *SimpleBroker) Subscribe(id string, ch chan<- EpisodeResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[id]; exists {
		return fmt.Errorf("observer %s is already subscribed", id)
	}

	b.subscribers[id] = ch
	return nil
}

// Unsubscribe removes an observer's subscription
func (b *SimpleBroker) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[id]; !exists {
		return fmt.Errorf("observer %s is not subscribed", id)
	}

	delete(b.subscribers, id)
	return nil
}

func (b *SimpleBroker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = make(map[string]chan<- EpisodeResult)
}
