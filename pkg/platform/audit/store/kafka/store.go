// Package kafka streams audit events to a Kafka topic. Reads are served by an
// optional local mirror; Kafka itself is write-only from this process.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	id "aplite/pkg/domain"
	audit "aplite/pkg/platform/audit"
	"aplite/pkg/platform/sentinel"
)

// Producer is the subset of *kgo.Client the store needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Store struct {
	producer Producer
	topic    string
	mirror   audit.Store
}

type Option func(*Store)

// WithMirror also appends every event to a local store used for ListByUser.
func WithMirror(mirror audit.Store) Option {
	return func(s *Store) {
		s.mirror = mirror
	}
}

func New(producer Producer, topic string, opts ...Option) *Store {
	s := &Store{producer: producer, topic: topic}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append produces the event keyed by user id so a user's events stay ordered
// within one partition.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	rec := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.UserID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(event.Category)},
			{Key: "action", Value: []byte(event.Action)},
		},
		Timestamp: event.Timestamp,
	}
	if err := s.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	if s.mirror != nil {
		return s.mirror.Append(ctx, event)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	if s.mirror == nil {
		return nil, fmt.Errorf("kafka audit store has no read mirror: %w", sentinel.ErrUnavailable)
	}
	return s.mirror.ListByUser(ctx, userID)
}
