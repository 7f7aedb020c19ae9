package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

// Publisher emits domain events. Callers treat failures as non-critical.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

type KafkaPublisher struct {
	producer *Producer
	source   string
}

func NewKafkaPublisher(producer *Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

// Publish keys messages by key so events of one aggregate stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	env, err := NewEnvelope(p.source, eventType, key, payload)
	if err != nil {
		return err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.producer.Enqueue([]byte(key), b, kafka.Header{Key: "event_type", Value: []byte(eventType)})
}

type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) error { return nil }
