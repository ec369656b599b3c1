package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-rules/internal/entity"
	"github.com/nerrad567/gray-logic-rules/internal/infrastructure/mqtt"
)

// Transport is the part of the MQTT client the bus uses.
// *mqtt.Client satisfies it.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// CommandTopic is where commands for e are published: its own topic, or
// {prefix}/entity/{name}/command when it has none.
func CommandTopic(topics mqtt.Topics, e *entity.Entity) string {
	if e.Topic() != "" {
		return e.Topic()
	}
	return topics.EntityCommand(e.Name())
}

// StateTopic is where state for e arrives: {topic}/state, or
// {prefix}/entity/{name}/state when it has no topic.
func StateTopic(topics mqtt.Topics, e *entity.Entity) string {
	if e.Topic() != "" {
		return topics.StateOf(e.Topic())
	}
	return topics.EntityState(e.Name())
}

// Publisher implements entity.Publisher over MQTT. Each message is one JSON
// object mapping attribute names to values.
type Publisher struct {
	transport Transport
	entities  *entity.Registry
	topics    mqtt.Topics
	qos       byte
}

// NewPublisher creates a publisher for the entities in registry.
func NewPublisher(transport Transport, entities *entity.Registry, topics mqtt.Topics, qos byte) *Publisher {
	return &Publisher{transport: transport, entities: entities, topics: topics, qos: qos}
}

// Publish sends msg to the command topic of the named entity.
func (p *Publisher) Publish(ctx context.Context, name string, msg map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e, ok := p.entities.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return p.transport.Publish(CommandTopic(p.topics, e), payload, p.qos, false)
}

var _ entity.Publisher = (*Publisher)(nil)
