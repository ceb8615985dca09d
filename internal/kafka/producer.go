package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fundboard/etf-service/internal/models"
)

// Producer publishes fund lifecycle events to Kafka.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a Kafka producer for the given brokers and topic.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishFundAdded publishes an event for a fund that was newly inserted.
func (p *Producer) PublishFundAdded(ctx context.Context, fund *models.Fund) error {
	event := models.FundEvent{
		EventType: models.EventFundAdded,
		Symbol:    fund.Symbol,
		Fund:      fund,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, fund.Symbol, event)
}

// PublishFundIngested publishes an event for a completed ingestion run.
func (p *Producer) PublishFundIngested(ctx context.Context, fund *models.Fund) error {
	event := models.FundEvent{
		EventType: models.EventFundIngested,
		Symbol:    fund.Symbol,
		Fund:      fund,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, fund.Symbol, event)
}

// PublishFundIngestFailed publishes an event for an ingestion run that could
// not complete.
func (p *Producer) PublishFundIngestFailed(ctx context.Context, symbol, message string) error {
	event := models.FundEvent{
		EventType: models.EventFundIngestFailed,
		Symbol:    symbol,
		Message:   message,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, symbol, event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.FundEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
