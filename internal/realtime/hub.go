package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Hub holds one watermill subscription per topic and fans change signals out to
// registered listeners. Listeners for a topic run sequentially on that topic's goroutine.
type Hub struct {
	subscriber message.Subscriber
	logger     *slog.Logger

	mu        sync.RWMutex
	listeners map[string]map[uint64]func()
	nextID    uint64
	wg        sync.WaitGroup
}

func NewHub(subscriber message.Subscriber, logger *slog.Logger) *Hub {
	return &Hub{
		subscriber: subscriber,
		logger:     logger,
		listeners:  make(map[string]map[uint64]func()),
	}
}

// Run subscribes to every topic; the consumers stop when ctx is done
func (h *Hub) Run(ctx context.Context, topics ...string) error {
	for _, topic := range topics {
		messages, err := h.subscriber.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}

		h.wg.Add(1)
		go h.consume(topic, messages)
	}

	h.logger.Info("Realtime hub started", "topics", topics)
	return nil
}

// Wait blocks until every consumer goroutine has exited
func (h *Hub) Wait() {
	h.wg.Wait()
}

func (h *Hub) consume(topic string, messages <-chan *message.Message) {
	defer h.wg.Done()

	for msg := range messages {
		msg.Ack()
		h.Notify(topic)
	}
}

// Listen registers fn for change signals on topic
func (h *Hub) Listen(topic string, fn func()) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.listeners[topic] == nil {
		h.listeners[topic] = make(map[uint64]func())
	}
	h.listeners[topic][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners[topic], id)
	}
}

// Notify invokes every listener for topic. Listeners may cancel themselves.
func (h *Hub) Notify(topic string) {
	h.mu.RLock()
	fns := make([]func(), 0, len(h.listeners[topic]))
	for _, fn := range h.listeners[topic] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// ListenerCount reports how many listeners a topic has
func (h *Hub) ListenerCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[topic])
}
