package realtime

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Stream delivers the full current collection once on Subscribe and again after
// every upstream change. The returned func detaches the listener.
type Stream[T any] interface {
	Subscribe(onUpdate func([]T)) (unsubscribe func())
}

// Loader reads the current state of a collection
type Loader[T any] func(ctx context.Context) ([]T, error)

const loadTimeout = 10 * time.Second

// TopicStream reloads a collection whenever the hub reports a change on its topic
type TopicStream[T any] struct {
	hub    *Hub
	topic  string
	load   Loader[T]
	logger *slog.Logger
}

func NewTopicStream[T any](hub *Hub, topic string, load Loader[T], logger *slog.Logger) *TopicStream[T] {
	return &TopicStream[T]{
		hub:    hub,
		topic:  topic,
		load:   load,
		logger: logger,
	}
}

func (s *TopicStream[T]) Subscribe(onUpdate func([]T)) func() {
	var active atomic.Bool
	active.Store(true)

	deliver := func() {
		if !active.Load() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		items, err := s.load(ctx)
		if err != nil {
			s.logger.Error("Failed to load collection for push", "topic", s.topic, "error", err)
			return
		}
		if active.Load() {
			onUpdate(items)
		}
	}

	cancel := s.hub.Listen(s.topic, deliver)
	deliver()

	return func() {
		active.Store(false)
		cancel()
	}
}
