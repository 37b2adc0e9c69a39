package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/pkg/config"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// KafkaWriter is the subset of *kafka.Writer the publisher needs
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher ships each finished run as one JSON message
type KafkaPublisher struct {
	writer KafkaWriter
	topic  string
	logger *logger.Logger
}

// New returns a Kafka publisher when brokers are configured, otherwise a no-op
func New(cfg config.KafkaConfig, log *logger.Logger) contracts.ResultPublisher {
	if !cfg.Enabled() {
		log.Debug("Kafka not configured, results will not be published")
		return NopPublisher{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return NewKafkaPublisher(writer, cfg.Topic, log)
}

// NewKafkaPublisher wraps an existing writer
func NewKafkaPublisher(w KafkaWriter, topic string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		logger: log.WithComponent("notify"),
	}
}

// Publish writes the result keyed by strategy and trading day
func (p *KafkaPublisher) Publish(ctx context.Context, result *contracts.ScreenResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal screen result: %w", err)
	}

	key := fmt.Sprintf("%s:%s", result.StrategyID, result.GeneratedAt.Format("2006-01-02"))
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  result.GeneratedAt,
		Headers: []kafka.Header{
			{Key: "run_id", Value: []byte(result.RunID)},
			{Key: "config_hash", Value: []byte(result.ConfigHash)},
			{Key: "final_picks", Value: []byte(fmt.Sprint(len(result.FinalPicks)))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}

	p.logger.WithFields(map[string]interface{}{
		"topic":       p.topic,
		"key":         key,
		"run_id":      result.RunID,
		"final_picks": len(result.FinalPicks),
		"bytes":       len(payload),
	}).Info("Published screen result")

	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards results
type NopPublisher struct{}

// Publish does nothing
func (NopPublisher) Publish(ctx context.Context, result *contracts.ScreenResult) error { return nil }

// Close does nothing
func (NopPublisher) Close() error { return nil }
