// Package events feeds upload-completion events from Kafka into the pipeline
// and publishes the outcome of each run.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"photopipe/internal/models"
)

const (
	readBackoff    = time.Second
	publishTimeout = 10 * time.Second
)

type Processor interface {
	Process(ctx context.Context, req models.ProcessRequest) (models.ProcessResult, error)
}

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader    MessageReader
	processor Processor
	publisher *Publisher
	log       *slog.Logger
}

// NewConsumer joins the configured consumer group. Results are published only
// when cfg.ResultTopic is set.
func NewConsumer(cfg models.KafkaConfig, processor Processor, log *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	var pub *Publisher
	if cfg.ResultTopic != "" {
		pub = NewPublisher(cfg.Brokers, cfg.ResultTopic)
	}
	return newConsumer(reader, processor, pub, log)
}

func newConsumer(reader MessageReader, processor Processor, pub *Publisher, log *slog.Logger) *Consumer {
	return &Consumer{reader: reader, processor: processor, publisher: pub, log: log.With("component", "kafka-consumer")}
}

// Run consumes until ctx is cancelled or the reader is closed. A bad message
// is logged and skipped; it never stops the loop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			c.log.Error("error reading message", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(readBackoff):
			}
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	log := c.log.With("partition", msg.Partition, "offset", msg.Offset)

	var req models.ProcessRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		log.Warn("skipping malformed upload event", "error", err)
		return
	}
	// The offset is already committed; a started run must finish even if
	// shutdown begins.
	runCtx := context.WithoutCancel(ctx)
	res, err := c.processor.Process(runCtx, req)
	if err != nil {
		log.Error("error processing image", "photo_id", req.PhotoID, "error", err)
	}
	if c.publisher == nil {
		return
	}
	if res.PhotoID == "" {
		res.PhotoID = req.PhotoID
	}
	pubCtx, cancel := context.WithTimeout(runCtx, publishTimeout)
	defer cancel()
	if err := c.publisher.Publish(pubCtx, res); err != nil {
		log.Error("error publishing result", "photo_id", req.PhotoID, "error", err)
	}
}

func (c *Consumer) Close() error {
	var errs []error
	if err := c.reader.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
