package sse

import (
	"sync"
)

const (
	// TopicReports receives every change that affects a rollup.
	TopicReports = "reports"

	EventCommissionChanged = "commission.changed"
	EventTiersChanged      = "tiers.changed"
	EventAgentChanged      = "agent.changed"
	EventExpensesChanged   = "expenses.changed"
)

// AgentTopic is the topic for changes scoped to one sales agent's views.
func AgentTopic(agentID string) string {
	return "agent:" + agentID
}

// Event tells subscribers that the views under Topic are stale.
type Event struct {
	Topic string
	Event string
	Data  interface{}
}

// Hub fans events out to subscribers grouped by topic.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a subscriber on topic and returns its channel and a
// cleanup function that must be called exactly once.
func (h *Hub) Subscribe(topic string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 10)

	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[chan Event]struct{})
	}
	h.subscribers[topic][ch] = struct{}{}

	cleanup := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subscribers[topic], ch)
		close(ch)
		if len(h.subscribers[topic]) == 0 {
			delete(h.subscribers, topic)
		}
	}

	return ch, cleanup
}

// Publish never blocks; slow subscribers miss events.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.Topic = topic
	for ch := range h.subscribers[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) PublishToMany(topics []string, event Event) {
	for _, topic := range topics {
		h.Publish(topic, event)
	}
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[topic])
}

func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}
