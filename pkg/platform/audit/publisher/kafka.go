package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// OutboxSource is the unpublished-events feed, implemented by the postgres
// audit store.
type OutboxSource interface {
	NextBatch(ctx context.Context, limit int) ([]Row, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Row mirrors one outbox record.
type Row struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
}

const (
	drainInterval = 2 * time.Second
	batchSize     = 100
)

// KafkaPublisher drains the audit outbox to a Kafka topic. Events are keyed
// by aggregate ID so per-application ordering survives partitioning.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	source OutboxSource
	logger *slog.Logger
}

// NewKafka connects to the brokers and ensures the topic exists.
func NewKafka(ctx context.Context, brokers []string, topic string, source OutboxSource, logger *slog.Logger) (*KafkaPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	// Topic creation is best-effort; brokers may manage topics externally.
	adm := kadm.NewClient(client)
	if resp, err := adm.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		logger.WarnContext(ctx, "audit topic creation failed", "topic", topic, "error", err)
	} else if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		logger.WarnContext(ctx, "audit topic creation failed", "topic", topic, "error", resp.Err)
	}

	return &KafkaPublisher{client: client, topic: topic, source: source, logger: logger}, nil
}

// Run drains the outbox until the context is cancelled.
func (p *KafkaPublisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	defer p.client.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.drainOnce(ctx); err != nil {
				p.logger.ErrorContext(ctx, "audit outbox drain failed", "error", err)
			}
		}
	}
}

func (p *KafkaPublisher) drainOnce(ctx context.Context) error {
	rows, err := p.source.NextBatch(ctx, batchSize)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	records := make([]*kgo.Record, len(rows))
	for i, row := range rows {
		records[i] = &kgo.Record{
			Topic: p.topic,
			Key:   []byte(row.AggregateID),
			Value: row.Payload,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(row.EventType)},
				{Key: "event_id", Value: []byte(row.ID.String())},
			},
		}
	}

	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit batch: %w", err)
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return p.source.MarkPublished(ctx, ids)
}
