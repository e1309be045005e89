package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaStore publishes drained events to a Kafka topic, keyed by user so one
// user's trail stays ordered within a partition.
type KafkaStore struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// KafkaOption configures a KafkaStore.
type KafkaOption func(*KafkaStore)

// WithKafkaLogger sets the logger.
func WithKafkaLogger(l *slog.Logger) KafkaOption {
	return func(s *KafkaStore) { s.logger = l }
}

// NewKafkaStore connects to the brokers and ensures the topic exists.
func NewKafkaStore(ctx context.Context, brokers []string, topic string, opts ...KafkaOption) (*KafkaStore, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	s := &KafkaStore{client: client, topic: topic, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.ensureTopic(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func (s *KafkaStore) ensureTopic(ctx context.Context) error {
	adm := kadm.NewClient(s.client)

	topics, err := adm.ListTopics(ctx, s.topic)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	if topics.Has(s.topic) {
		return nil
	}

	if _, err := adm.CreateTopic(ctx, 1, 1, nil, s.topic); err != nil {
		return fmt.Errorf("create topic %s: %w", s.topic, err)
	}
	s.logger.Info("audit topic created", "topic", s.topic)
	return nil
}

// Append produces the batch synchronously. The worker already decouples this
// from request handling, so waiting for acks here is fine.
func (s *KafkaStore) Append(ctx context.Context, events []Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal audit event: %w", err)
		}
		records = append(records, &kgo.Record{
			Key:   []byte(event.UserID),
			Value: payload,
		})
	}

	if err := s.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit events: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying client.
func (s *KafkaStore) Close() {
	s.client.Close()
}
