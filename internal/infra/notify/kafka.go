package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/domain/model"

	"github.com/Shopify/sarama"
	"go.uber.org/zap"
)

// KafkaNotifier publishes order events as JSON keyed by order number, so one
// order's events stay on one partition.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

// NewSyncProducer builds the producer config used for order events.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Retry.Backoff = 500 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return producer, nil
}

func NewKafkaNotifier(producer sarama.SyncProducer, topic string, log *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic, log: log}
}

func (n *KafkaNotifier) OrderStatusChanged(ctx context.Context, ev model.OrderEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(ev.OrderNumber),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(ev.EventID)},
			{Key: []byte("event_type"), Value: []byte("order.status_changed")},
		},
	}
	if deadline, ok := ctx.Deadline(); ok {
		msg.Metadata = deadline
	}

	partition, offset, err := n.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send order event to Kafka: %w", err)
	}
	n.log.Debug("order event sent",
		zap.String("topic", n.topic),
		zap.String("order_number", ev.OrderNumber),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
