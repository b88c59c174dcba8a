// Package stream fans out alert lifecycle events to live subscribers.
package stream

import (
	"context"
	"sync"
	"time"

	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
)

// EventType identifies a lifecycle transition on an alert.
type EventType string

const (
	EventAlertReceived EventType = "alert.received"
	EventAlertAccepted EventType = "alert.accepted"
	EventAlertRejected EventType = "alert.rejected"
	EventAlertFailed   EventType = "alert.failed"
)

// Event is a single lifecycle notification delivered to subscribers.
type Event struct {
	Type      EventType     `json:"type"`
	Alert     *models.Alert `json:"alert,omitempty"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// HubConfig holds configuration for the event hub.
type HubConfig struct {
	// BufferSize is the size of the internal event channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           256,
		SubscriberBufferSize: 32,
	}
}

// Hub distributes events to multiple subscribers via a fan-out pattern.
// Slow subscribers never block publishers; an event that does not fit a
// subscriber's buffer is dropped for that subscriber and counted.
type Hub struct {
	config      HubConfig
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	eventChan   chan Event
	done        chan struct{}
	started     bool

	metricsMu       sync.RWMutex
	eventsPublished uint64
	eventsDropped   uint64
}

// Subscriber is one consumer of the event stream.
type Subscriber struct {
	ID           string
	Channel      chan Event
	DroppedCount int
	CreatedAt    time.Time
}

// NewHub creates a hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	return &Hub{
		config:      config,
		subscribers: make(map[string]*Subscriber),
		eventChan:   make(chan Event, config.BufferSize),
		done:        make(chan struct{}),
	}
}

// Start begins the hub's distribution loop.
func (h *Hub) Start(ctx context.Context) {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	go h.broadcastLoop(ctx)
}

func (h *Hub) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case ev := <-h.eventChan:
			h.broadcast(ev)
		}
	}
}

// Stop stops the hub and closes all subscriber channels.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return
	}
	h.started = false
	close(h.done)

	for id, sub := range h.subscribers {
		close(sub.Channel)
		delete(h.subscribers, id)
	}
}

// Publish enqueues an event for distribution. It never blocks; when the
// internal buffer is full the event is dropped and counted.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	select {
	case h.eventChan <- ev:
		h.metricsMu.Lock()
		h.eventsPublished++
		h.metricsMu.Unlock()
	default:
		h.metricsMu.Lock()
		h.eventsDropped++
		h.metricsMu.Unlock()
	}
}

// Subscribe registers a new subscriber. The returned cancel func removes the
// subscriber and closes its channel; call it exactly once.
func (h *Hub) Subscribe(id string) (<-chan Event, func()) {
	sub := &Subscriber{
		ID:        id,
		Channel:   make(chan Event, h.config.SubscriberBufferSize),
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.subscribers[id] = sub
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if s, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(s.Channel)
		}
	}
	return sub.Channel, cancel
}

func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		select {
		case sub.Channel <- ev:
		default:
			sub.DroppedCount++
			h.metricsMu.Lock()
			h.eventsDropped++
			h.metricsMu.Unlock()
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Stats returns published and dropped event counts.
func (h *Hub) Stats() (published, dropped uint64) {
	h.metricsMu.RLock()
	defer h.metricsMu.RUnlock()
	return h.eventsPublished, h.eventsDropped
}
