package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"alert-registry/internal/models"
)

// Producer publishes alert events to a Kafka topic. It is an event sink for
// the dispatcher.
type Producer struct {
	writer *kafkago.Writer
}

func NewProducer(broker, topic string) *Producer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(broker),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Producer{writer: w}
}

func (p *Producer) Name() string { return "kafka" }

// Publish writes ev keyed by alert id so events for one alert stay ordered.
func (p *Producer) Publish(ctx context.Context, ev models.AlertEvent) error {
	msg, err := serializeEvent(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", ev.Type, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func serializeEvent(ev models.AlertEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(ev.Alert.ID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
			{Key: "occurred_at", Value: []byte(ev.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
