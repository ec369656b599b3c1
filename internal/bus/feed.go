package bus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-rules/internal/entity"
	"github.com/nerrad567/gray-logic-rules/internal/infrastructure/mqtt"
)

// Hub receives entity.updated events. The API WebSocket hub implements it.
type Hub interface {
	Broadcast(channel string, payload any)
}

// Feed subscribes to every entity's state topic and writes received
// attribute values into the entity.
//
// Thread Safety: Start and Stop are safe to call from any goroutine.
// Message handlers run on MQTT client goroutines.
type Feed struct {
	transport Transport
	entities  *entity.Registry
	topics    mqtt.Topics
	qos       byte
	logger    Logger
	hub       Hub

	mu         sync.Mutex
	subscribed []string
}

// NewFeed creates a state feed for the entities in registry.
func NewFeed(transport Transport, entities *entity.Registry, topics mqtt.Topics, qos byte) *Feed {
	return &Feed{
		transport: transport,
		entities:  entities,
		topics:    topics,
		qos:       qos,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger. Call before Start.
func (f *Feed) SetLogger(logger Logger) {
	if logger != nil {
		f.logger = logger
	}
}

// SetHub sets the hub notified after each update. Call before Start.
func (f *Feed) SetHub(hub Hub) {
	f.hub = hub
}

// Start subscribes to the state topic of every entity. On error the
// subscriptions made so far are removed.
func (f *Feed) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.subscribed) > 0 {
		return ErrFeedRunning
	}

	for _, e := range f.entities.List() {
		topic := StateTopic(f.topics, e)
		if err := f.transport.Subscribe(topic, f.qos, f.handler(e)); err != nil {
			f.unsubscribeLocked()
			return fmt.Errorf("subscribing %s state: %w", e.Name(), err)
		}
		f.subscribed = append(f.subscribed, topic)
	}

	f.logger.Info("entity feed started", "entities", len(f.subscribed))
	return nil
}

// Stop removes every subscription made by Start.
func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribeLocked()
}

func (f *Feed) unsubscribeLocked() {
	for _, topic := range f.subscribed {
		if err := f.transport.Unsubscribe(topic); err != nil {
			f.logger.Warn("unsubscribing entity state", "topic", topic, "error", err)
		}
	}
	f.subscribed = nil
}

// handler decodes a state payload for e. Numbers stay float64, so a
// JSON 3 and 3.0 compare equal downstream.
func (f *Feed) handler(e *entity.Entity) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		values, err := decodeState(payload)
		if err != nil {
			return fmt.Errorf("%s on %s: %w", e.Name(), topic, err)
		}
		if len(values) == 0 {
			return nil
		}

		e.Update(values)
		f.logger.Debug("entity state updated", "entity", e.Name(), "attributes", len(values))

		if f.hub != nil {
			f.hub.Broadcast("entity.updated", map[string]any{
				"entity":     e.Name(),
				"attributes": values,
			})
		}
		return nil
	}
}

func decodeState(payload []byte) (map[string]any, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || payload[0] != '{' {
		return nil, ErrInvalidPayload
	}

	var values map[string]any
	if err := json.Unmarshal(payload, &values); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return values, nil
}
