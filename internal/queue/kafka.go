package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaQueue publishes jobs to a topic. A job counts as handed off once the
// brokers acknowledge the write.
type KafkaQueue struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafkaQueue creates a producer for topic
func NewKafkaQueue(brokers []string, topic string, logger *slog.Logger) *KafkaQueue {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	return newKafkaQueue(writer, logger)
}

func newKafkaQueue(writer messageWriter, logger *slog.Logger) *KafkaQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaQueue{writer: writer, logger: logger}
}

// Enqueue publishes job keyed by its alert
func (q *KafkaQueue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(job.Key()),
		Value: payload,
		Time:  job.EnqueuedAt,
	}
	if err := q.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write job to kafka: %w", err)
	}

	q.logger.Debug("Published notification job",
		slog.String("job_id", job.ID.String()),
		slog.String("channel", string(job.Channel)),
		slog.Int64("alert_id", job.AlertID),
	)
	return nil
}

// Close closes the producer
func (q *KafkaQueue) Close() error {
	return q.writer.Close()
}

// Consumer reads jobs from Kafka and runs them through a handler
type Consumer struct {
	reader     messageReader
	logger     *slog.Logger
	retryDelay time.Duration
}

// NewConsumer creates a consumer group reader for topic
func NewConsumer(brokers []string, topic, groupID string, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	return newConsumer(reader, logger)
}

func newConsumer(reader messageReader, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{reader: reader, logger: logger, retryDelay: time.Second}
}

// Run consumes until ctx is cancelled. Every message is committed after one
// handling attempt, whether or not the send succeeded.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	c.logger.Info("Starting notification consumer")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Notification consumer stopped")
				return ctx.Err()
			}
			c.logger.Error("Error fetching message", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
			continue
		}

		c.handle(ctx, msg, handler)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("Error committing message",
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler Handler) {
	var job Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		c.logger.Error("Discarding malformed job",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := handler.Handle(ctx, job); err != nil {
		c.logger.Error("Notification job failed",
			slog.String("job_id", job.ID.String()),
			slog.String("channel", string(job.Channel)),
			slog.Int64("alert_id", job.AlertID),
			slog.String("error", err.Error()),
		)
		return
	}

	c.logger.Info("Notification job completed",
		slog.String("job_id", job.ID.String()),
		slog.String("channel", string(job.Channel)),
		slog.Int64("alert_id", job.AlertID),
	)
}

// Close closes the consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
