// Package casefeed publishes sanctions screening hits to Kafka for the
// downstream case management pipeline. Publishing is best effort; a broker
// outage must never delay or fail the transaction path.
package casefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// SanctionsHit is the event emitted when transaction screening finds matches
// or blocks a transaction. Case creation consumes it to open investigations.
type SanctionsHit struct {
	TransactionID string    `json:"transactionId"`
	EntityKind    string    `json:"entityKind"`
	ScreenedName  string    `json:"screenedName"`
	Status        string    `json:"status"`
	HighestScore  float64   `json:"highestScore"`
	MatchCount    int       `json:"matchCount"`
	Blocked       bool      `json:"blocked"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Publisher emits SanctionsHit events.
type Publisher interface {
	PublishSanctionsHit(ctx context.Context, hit SanctionsHit) error
	Close()
}

// KafkaPublisher writes hits to a Kafka topic keyed by transaction ID so all
// hits for one transaction land on the same partition in order.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type Option func(*KafkaPublisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *KafkaPublisher) {
		p.logger = logger
	}
}

// NewKafkaPublisher connects to the brokers and ensures the topic exists.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string, opts ...Option) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	p := &KafkaPublisher{
		client: client,
		topic:  topic,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(ctx, -1, -1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %q: %w", topic, resp.Err)
	}
	return nil
}

// PublishSanctionsHit produces the event asynchronously. Delivery failures
// are logged, not returned to the screening path.
func (p *KafkaPublisher) PublishSanctionsHit(ctx context.Context, hit SanctionsHit) error {
	payload, err := json.Marshal(hit)
	if err != nil {
		return fmt.Errorf("marshal sanctions hit: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(hit.TransactionID),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("failed to publish sanctions hit",
				"transaction_id", hit.TransactionID, "error", err)
		}
	})
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}

// MemoryPublisher records hits in memory for tests and local runs.
type MemoryPublisher struct {
	Hits []SanctionsHit
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) PublishSanctionsHit(_ context.Context, hit SanctionsHit) error {
	p.Hits = append(p.Hits, hit)
	return nil
}

func (p *MemoryPublisher) Close() {}
