// Package kafka implements the analytics warehouse adapter: benchmark rows
// are published to a topic and drained into the warehouse downstream.
package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/reelgauge/reelgauge/internal/application/evaluation"
	"github.com/reelgauge/reelgauge/internal/config"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// messageWriter is the subset of kafka.Writer the sink needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AnalyticsSink publishes benchmark rows to the analytics topic.
type AnalyticsSink struct {
	writer messageWriter
	logger logging.Logger
}

// NewAnalyticsSink constructs the producer.
func NewAnalyticsSink(cfg config.KafkaConfig, log logging.Logger) *AnalyticsSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AnalyticsTopic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.ProducerRetries,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &AnalyticsSink{writer: writer, logger: log.Named("analytics")}
}

// AppendRows publishes the rows, keyed by account so one account's history
// stays ordered within a partition.
func (s *AnalyticsSink) AppendRows(ctx context.Context, rows []evaluation.AnalyticsRow) error {
	if len(rows) == 0 {
		return nil
	}
	messages := make([]kafka.Message, 0, len(rows))
	for _, row := range rows {
		value, err := json.Marshal(row)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode analytics row")
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(row.AccountID),
			Value: value,
		})
	}
	if err := s.writer.WriteMessages(ctx, messages...); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "analytics publish failed")
	}
	s.logger.Debug("analytics rows published", logging.Int("count", len(rows)))
	return nil
}

// Close flushes and closes the producer.
func (s *AnalyticsSink) Close() error {
	return s.writer.Close()
}
