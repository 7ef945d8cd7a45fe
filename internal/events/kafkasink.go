package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	"github.com/segmentio/kafka-go"
)

// KafkaSink publishes events to a Kafka topic for external analytics
// consumers. Events are keyed by room so per-room ordering is preserved
// within a partition.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink creates a sink from configuration.
func NewKafkaSink(cfg config.KafkaData) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka sink requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka sink requires a topic")
	}
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}, nil
}

type envelope struct {
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload"`
}

func (s *KafkaSink) write(ctx context.Context, key string, kind string, payload interface{}) error {
	value, err := json.Marshal(envelope{Kind: kind, Payload: payload})
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", kind, err)
	}
	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		return fmt.Errorf("writing %s event: %w", kind, err)
	}
	return nil
}

func (s *KafkaSink) EmitCycle(ctx context.Context, event types.CycleEvent) error {
	return s.write(ctx, event.Room, "cycle", event)
}

func (s *KafkaSink) EmitDeviceHealth(ctx context.Context, event types.DeviceHealthEvent) error {
	return s.write(ctx, event.Room, "device_health", event)
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
