package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"alert-registry/internal/logging"
	"alert-registry/internal/models"
)

// AlertCreator is the part of the service the ingest consumer drives.
type AlertCreator interface {
	Create(ctx context.Context, in models.AlertInput) (models.Alert, error)
}

const readBackoff = 2 * time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// Consumer reads AlertInput messages from the ingest topic and creates alerts.
type Consumer struct {
	reader  messageReader
	topic   string
	backoff time.Duration
	svc     AlertCreator
	logger  *logging.Logger
}

func NewConsumer(broker, topic, groupID string, svc AlertCreator, logger *logging.Logger) *Consumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafkago.FirstOffset,
	})
	return &Consumer{reader: r, topic: topic, backoff: readBackoff, svc: svc, logger: logger}
}

// Start consumes until ctx is cancelled or the reader is closed. Other read
// errors are logged and retried after a backoff.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("Kafka consumer started on topic %s", c.topic)
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, io.EOF) {
					c.logger.Infof("Kafka consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				select {
				case <-ctx.Done():
					c.logger.Infof("Kafka consumer stopped")
					return
				case <-time.After(c.backoff):
				}
				continue
			}
			c.handleMessage(ctx, msg)
		}
	}()
}

// handleMessage creates an alert from msg. Bad messages are logged and
// skipped. It reports whether an alert was created.
func (c *Consumer) handleMessage(ctx context.Context, msg kafkago.Message) bool {
	var in models.AlertInput
	if err := json.Unmarshal(msg.Value, &in); err != nil {
		c.logger.Errorf("Unmarshal message at offset %d failed: %v", msg.Offset, err)
		return false
	}

	alert, err := c.svc.Create(ctx, in)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			c.logger.Warnf("Skipping invalid message at offset %d: %v", msg.Offset, err)
		} else {
			c.logger.Errorf("Create alert from offset %d failed: %v", msg.Offset, err)
		}
		return false
	}
	c.logger.Infof("Processed Kafka message: alert %d", alert.ID)
	return true
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
