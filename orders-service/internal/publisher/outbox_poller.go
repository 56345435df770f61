package publisher

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	r "github.com/fjod/go_bookstore/orders-service/internal/repository"
)

const headerEventType = "event_type"

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller moves committed outbox rows to kafka. Rows are marked
// processed only after the broker acknowledged them, so delivery is at least
// once.
type OutboxPoller struct {
	interval time.Duration
	batch    int
	repo     r.OutboxRepository
	writer   MessageWriter
	logger   *zap.Logger
}

func NewOutboxPoller(repo r.OutboxRepository, logger *zap.Logger, interval time.Duration, batch int, topic string, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return NewOutboxPollerWithWriter(repo, w, logger, interval, batch)
}

func NewOutboxPollerWithWriter(repo r.OutboxRepository, w MessageWriter, logger *zap.Logger, interval time.Duration, batch int) *OutboxPoller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	return &OutboxPoller{
		interval: interval,
		batch:    batch,
		repo:     repo,
		writer:   w,
		logger:   logger.Named("outbox"),
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", zap.Duration("interval", p.interval))
	defer p.logger.Info("outbox poller stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// processUnpublishedEvents stops at the first failed publish so that a
// user's events reach the topic in the order they were written.
func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.batch)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", zap.Error(err))
		return 0
	}

	published := 0
	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.logger.Error("failed to publish event",
				zap.Int64("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err))
			return published
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.logger.Error("failed to mark event as processed", zap.Int64("event_id", event.ID), zap.Error(err))
			return published
		}
		published++
	}
	if published > 0 {
		p.logger.Debug("published outbox events", zap.Int("count", published))
	}
	return published
}

func (p *OutboxPoller) publish(ctx context.Context, event *r.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // user id keeps one user's orders on one partition
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(event.EventType)},
		},
		Time: event.CreatedAt,
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}
