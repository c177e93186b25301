// Package kafka publishes audit events to a Kafka topic so downstream
// consumers (retention archival, alerting) can process the trail without
// touching the primary database.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "saathi/pkg/platform/audit"
)

// Topic is the audit event stream. One partition key per user keeps a user's
// trail ordered.
const Topic = "saathi.audit.v1"

// Sink implements audit.Sink on a Kafka producer.
type Sink struct {
	client *kgo.Client
}

// payload is the wire form of an event. Snake-cased so non-Go consumers read
// it naturally.
type payload struct {
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	UserID    string    `json:"user_id,omitempty"`
	RuleCode  string    `json:"rule_code,omitempty"`
	SubjectID string    `json:"subject_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// New connects to the given brokers and ensures the audit topic exists.
func New(ctx context.Context, brokers []string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client); err != nil {
		client.Close()
		return nil, err
	}
	return &Sink{client: client}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 3, 1, nil, Topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, result := range resp {
		if result.Err != nil && !errors.Is(result.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %s: %w", result.Topic, result.Err)
		}
	}
	return nil
}

// Publish produces the event synchronously so failures surface to the
// publisher's logging.
func (s *Sink) Publish(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(payload{
		Category:  string(event.Category),
		Timestamp: event.Timestamp,
		Action:    string(event.Action),
		UserID:    userKey(event),
		RuleCode:  event.RuleCode,
		SubjectID: event.SubjectID,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: Topic,
		Key:   []byte(userKey(event)),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (s *Sink) Close() {
	s.client.Close()
}

func userKey(event audit.Event) string {
	if event.UserID.IsZero() {
		return ""
	}
	return event.UserID.String()
}
