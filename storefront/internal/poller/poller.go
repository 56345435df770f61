// Package poller consumes order events and reconciles stored carts with
// orders placed elsewhere.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

const (
	headerEventType = "event_type"
	maxAttempts     = 3
)

// OrderApplier removes ordered lines from a user's cart.
type OrderApplier interface {
	ApplyOrderPlaced(ctx context.Context, ev domain.OrderPlacedEvent) error
}

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Poller struct {
	reader  MessageReader
	applier OrderApplier
	logger  *zap.Logger
	backoff time.Duration
}

func NewPoller(applier OrderApplier, logger *zap.Logger, topic, groupID string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return NewPollerWithReader(reader, applier, logger)
}

func NewPollerWithReader(reader MessageReader, applier OrderApplier, logger *zap.Logger) *Poller {
	return &Poller{reader: reader, applier: applier, logger: logger, backoff: time.Second}
}

// Run consumes until ctx is cancelled. A message is committed once it was
// applied, found unusable, or failed maxAttempts times.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("order event poller started")
	for {
		if ctx.Err() != nil {
			p.logger.Info("order event poller stopped")
			return
		}
		if err := p.poll(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("order event poll failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(p.backoff):
			}
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Error("error closing reader", zap.Error(err))
	}
}

func (p *Poller) poll(ctx context.Context) error {
	m, err := p.reader.FetchMessage(ctx)
	if err != nil {
		return err
	}

	for attempt := 1; ; attempt++ {
		err = p.handle(ctx, m)
		if err == nil || ctx.Err() != nil {
			break
		}
		if attempt == maxAttempts {
			p.logger.Error("giving up on order event", zap.Int64("offset", m.Offset), zap.Error(err))
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(p.backoff):
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return p.reader.CommitMessages(ctx, m)
}

func (p *Poller) handle(ctx context.Context, m kafka.Message) error {
	if et := eventType(m); et != "" && et != domain.EventTypeOrderPlaced {
		p.logger.Debug("skipping event", zap.String("event_type", et))
		return nil
	}

	var ev domain.OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		p.logger.Error("error parsing message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if ev.UserID == "" {
		p.logger.Error("missing user_id", zap.Int64("offset", m.Offset))
		return nil
	}

	if err := p.applier.ApplyOrderPlaced(ctx, ev); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		p.logger.Warn("failed to reconcile cart",
			zap.String("user_id", ev.UserID), zap.String("order_id", ev.OrderID), zap.Error(err))
		return err
	}
	p.logger.Debug("cart reconciled", zap.String("user_id", ev.UserID), zap.String("order_id", ev.OrderID))
	return nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == headerEventType {
			return string(h.Value)
		}
	}
	return ""
}
