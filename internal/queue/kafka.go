package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events to a topic keyed by event id.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a synchronous writer that waits for all replicas.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			Async:                  false,
			WriteTimeout:           10 * time.Second,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish writes ev to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ID.String()),
		Value: body,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(ev.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaConsumer reads events from a topic as part of a consumer group.
type KafkaConsumer struct {
	reader  *kafka.Reader
	handler Handler
	log     zerolog.Logger
}

// NewKafkaConsumer creates a group reader for topic.
func NewKafkaConsumer(brokers []string, topic, groupID string, handler Handler, log zerolog.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6, //10MB
		MaxWait:  time.Second,
	})
	return &KafkaConsumer{reader: reader, handler: handler, log: log}
}

// Run consumes until ctx is done. Offsets are committed only after the
// handler succeeds, so failed events are read again after a restart.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			c.log.Warn().Err(err).Msg("notification consumer: fetch failed")
			if !sleep(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}

		var ev Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.log.Error().Err(err).Int64("offset", msg.Offset).Msg("notification consumer: malformed message skipped")
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}
		if err := c.handleWithRetry(ctx, ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error().Err(err).Str("event_id", ev.ID.String()).Msg("notification consumer: giving up on event")
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Warn().Err(err).Msg("notification consumer: commit failed")
		}
	}
}

func (c *KafkaConsumer) handleWithRetry(ctx context.Context, ev Event) error {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		if err = c.handler(ctx, ev); err == nil {
			return nil
		}
		c.log.Warn().Err(err).Int("attempt", attempt).Str("event_id", ev.ID.String()).Msg("notification consumer: handle failed")
		if !sleep(ctx, time.Duration(attempt)*time.Second) {
			return ctx.Err()
		}
	}
	return err
}
