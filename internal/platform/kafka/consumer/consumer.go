package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is the transport-level view of a consumed record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// Handler processes messages from a subscribed topic.
//
// Returning nil commits the message. Handlers must return nil for messages
// they have decided to discard (malformed payloads, unknown references), so a
// poison message never blocks the partition. Returning an error leaves the
// message uncommitted for redelivery; the loop itself keeps running.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Config captures the consumer group subscription.
type Config struct {
	Brokers []string
	Group   string
	Topics  []string
}

// Consumer is a long-lived consumer-group loop. Broker-level failures are
// fatal and surface out of Run so the process supervisor restarts the daemon;
// a consumer that silently stops consuming is worse than one that dies.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

// New joins the consumer group and subscribes to the configured topics.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until the context is cancelled or the client fails.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var fatal error
		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			fatal = fmt.Errorf("fetch %s/%d: %w", topic, partition, err)
		})
		if fatal != nil {
			return fatal
		}

		done := handleBatch(ctx, c.handler, c.logger, fetches.Records())
		if len(done) == 0 {
			continue
		}
		if err := c.client.CommitRecords(ctx, done...); err != nil {
			c.logger.Error("commit failed",
				"records", len(done),
				"error", err,
			)
		}
	}
}

// handleBatch runs the handler over one poll's records in order and returns
// the records that are safe to commit. Processing stops at the first handler
// error: commits advance the group offset per partition, so committing any
// later record would move the group past the failed one and it would never be
// redelivered. The failed record and everything after it stay uncommitted and
// come back on the next delivery; handlers are idempotent, so the replay of
// already-handled records ahead of them is harmless.
func handleBatch(ctx context.Context, handler Handler, logger *slog.Logger, recs []*kgo.Record) []*kgo.Record {
	done := make([]*kgo.Record, 0, len(recs))
	for _, rec := range recs {
		msg := &Message{
			Topic:     rec.Topic,
			Partition: rec.Partition,
			Offset:    rec.Offset,
			Key:       rec.Key,
			Value:     rec.Value,
		}
		if err := handler.Handle(ctx, msg); err != nil {
			logger.Error("message handling failed, stopping batch for redelivery",
				"topic", rec.Topic,
				"partition", rec.Partition,
				"offset", rec.Offset,
				"error", err,
			)
			break
		}
		done = append(done, rec)
	}
	return done
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() {
	c.client.Close()
}
