package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"

	"mongolog-insights/config"
	"mongolog-insights/internal/dataset"
	"mongolog-insights/internal/extractor"
	"mongolog-insights/internal/repository"
)

const sinkName = "kafka"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type snapshotSink struct {
	writer messageWriter
	topic  string
}

// NewSnapshotSink returns a nil sink when Kafka is disabled.
func NewSnapshotSink(lc fx.Lifecycle, cfg *config.Config) (repository.SnapshotSink, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topic == "" {
		log.Error().Msg("Kafka brokers or topic is not configured.")
		return nil, errors.New("kafka configuration missing")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	s := &snapshotSink{
		writer: writer,
		topic:  cfg.Kafka.Topic,
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing Kafka producer")
			return s.writer.Close()
		},
	})
	log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Kafka producer initialized")
	return s, nil
}

func (s *snapshotSink) Name() string {
	return sinkName
}

func (s *snapshotSink) Publish(ctx context.Context, snap *dataset.Snapshot) error {
	messages, err := BuildMessages(snap)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		log.Warn().Str("run_id", snap.RunID).Msg("No events to produce.")
		return nil
	}

	if err := s.writer.WriteMessages(ctx, messages...); err != nil {
		log.Error().Err(err).Int("message_count", len(messages)).Msg("Failed to write messages to Kafka")
		return fmt.Errorf("kafka write to %s failed: %w", s.topic, err)
	}
	log.Debug().Int("message_count", len(messages)).Str("topic", s.topic).Msg("Successfully produced messages to Kafka")
	return nil
}

type eventMessage struct {
	RunID string      `json:"run_id"`
	Kind  string      `json:"kind"`
	Event interface{} `json:"event"`
}

// BuildMessages renders one message per event, keyed by event kind so each
// kind stays ordered within its partition.
func BuildMessages(snap *dataset.Snapshot) ([]kafka.Message, error) {
	messages := make([]kafka.Message, 0, snap.SlowQueries.Len()+snap.Connections.Len()+snap.Information.Len())
	add := func(kind extractor.Kind, event interface{}) error {
		value, err := gojson.Marshal(eventMessage{RunID: snap.RunID, Kind: string(kind), Event: event})
		if err != nil {
			return fmt.Errorf("failed to marshal %s event for Kafka: %w", kind, err)
		}
		messages = append(messages, kafka.Message{Key: []byte(kind), Value: value})
		return nil
	}

	for i := 0; i < snap.SlowQueries.Len(); i++ {
		if err := add(extractor.KindSlowQuery, snap.SlowQueries.Row(i)); err != nil {
			return nil, err
		}
	}
	for i := 0; i < snap.Connections.Len(); i++ {
		if err := add(extractor.KindConnection, snap.Connections.Row(i)); err != nil {
			return nil, err
		}
	}
	for i := 0; i < snap.Information.Len(); i++ {
		if err := add(extractor.KindInformation, snap.Information.Row(i)); err != nil {
			return nil, err
		}
	}
	return messages, nil
}
