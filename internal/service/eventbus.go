package service

import (
	"sync"
)

// Topics published on the bus.
const (
	TopicQueue  = "queue"
	TopicEngine = "engine"
	TopicVideo  = "video"
)

// Event types.
const (
	EventJob      = "job"
	EventRemoved  = "removed"
	EventCleared  = "cleared"
	EventEngine   = "engine"
	EventProgress = "progress"
	EventStatus   = "status"
)

type Event struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Percent int    `json:"percent"`
}

type EventPublisher interface {
	Publish(topic string, event Event)
}

type EventBus struct {
	subscribers map[string][]chan Event
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan Event),
	}
}

func (eb *EventBus) Subscribe(topic string) chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan Event, 32)
	eb.subscribers[topic] = append(eb.subscribers[topic], ch)
	return ch
}

func (eb *EventBus) Unsubscribe(topic string, ch chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.subscribers[topic]
	for i, sub := range subs {
		if sub == ch {
			eb.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}

	if len(eb.subscribers[topic]) == 0 {
		delete(eb.subscribers, topic)
	}
}

// Publish never blocks; a subscriber whose buffer is full misses the event.
func (eb *EventBus) Publish(topic string, event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, ch := range eb.subscribers[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}
