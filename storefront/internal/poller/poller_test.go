package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap"

	"github.com/fjod/go_bookstore/storefront/internal/domain"
)

type recordingApplier struct {
	mu     sync.Mutex
	events []domain.OrderPlacedEvent
	fail   int
}

func (a *recordingApplier) ApplyOrderPlaced(_ context.Context, ev domain.OrderPlacedEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail > 0 {
		a.fail--
		return errors.New("repository unavailable")
	}
	a.events = append(a.events, ev)
	return nil
}

func (a *recordingApplier) Events() []domain.OrderPlacedEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.OrderPlacedEvent{}, a.events...)
}

// fakeReader hands out queued messages and then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) Committed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

func orderMessage(t *testing.T, offset int64, eventType string, ev domain.OrderPlacedEvent) kafka.Message {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{
		Offset:  offset,
		Key:     []byte(ev.OrderID),
		Value:   body,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(eventType)}},
	}
}

func runPoller(t *testing.T, p *Poller) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestPoller_AppliesAndCommits(t *testing.T) {
	placed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	reader := &fakeReader{queue: []kafka.Message{
		orderMessage(t, 1, domain.EventTypeOrderPlaced, domain.OrderPlacedEvent{
			OrderID: "o1", UserID: "u1", Items: []domain.OrderPlacedItem{{ID: "b1", Quantity: 2}}, OrderDate: placed,
		}),
		orderMessage(t, 2, "order.cancelled", domain.OrderPlacedEvent{OrderID: "o2", UserID: "u1"}),
		{Offset: 3, Value: []byte("not json")},
		orderMessage(t, 4, domain.EventTypeOrderPlaced, domain.OrderPlacedEvent{OrderID: "o3"}),
	}}
	applier := &recordingApplier{}
	runPoller(t, NewPollerWithReader(reader, applier, zap.NewNop()))

	require.Eventually(t, func() bool { return reader.Committed() == 4 }, 2*time.Second, 10*time.Millisecond)

	events := applier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "u1", events[0].UserID)
	assert.Equal(t, "b1", events[0].Items[0].ID)
	assert.True(t, placed.Equal(events[0].OrderDate))
}

func TestPoller_RetriesFailedApply(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		orderMessage(t, 1, domain.EventTypeOrderPlaced, domain.OrderPlacedEvent{OrderID: "o1", UserID: "u1"}),
	}}
	applier := &recordingApplier{fail: 2}
	p := NewPollerWithReader(reader, applier, zap.NewNop())
	p.backoff = time.Millisecond
	runPoller(t, p)

	require.Eventually(t, func() bool { return reader.Committed() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, applier.Events(), 1)
}

func TestPoller_GivesUpAfterMaxAttempts(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		orderMessage(t, 1, domain.EventTypeOrderPlaced, domain.OrderPlacedEvent{OrderID: "o1", UserID: "u1"}),
		orderMessage(t, 2, domain.EventTypeOrderPlaced, domain.OrderPlacedEvent{OrderID: "o2", UserID: "u2"}),
	}}
	applier := &recordingApplier{fail: maxAttempts}
	p := NewPollerWithReader(reader, applier, zap.NewNop())
	p.backoff = time.Millisecond
	runPoller(t, p)

	require.Eventually(t, func() bool { return reader.Committed() == 2 }, 2*time.Second, 10*time.Millisecond)
	events := applier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "o2", events[0].OrderID)
}

func setupKafka(t *testing.T) string {
	if testing.Short() {
		t.Skip("skipping kafka container test in short mode")
	}
	ctx := context.Background()

	kafkaContainer, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")
	return brokers[0]
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafka.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestPoller_KafkaIntegration(t *testing.T) {
	broker := setupKafka(t)
	topic := "orders-placed"
	createTopic(t, broker, topic)

	ev := domain.OrderPlacedEvent{
		OrderID:   "o1",
		UserID:    "123",
		Items:     []domain.OrderPlacedItem{{ID: "b1", Quantity: 1}},
		OrderDate: time.Now().UTC(),
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	err := w.WriteMessages(context.Background(), orderMessage(t, 0, domain.EventTypeOrderPlaced, ev))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	applier := &recordingApplier{}
	p := NewPoller(applier, zap.NewNop(), topic, "storefront-test", broker)
	t.Cleanup(p.Close)
	runPoller(t, p)

	require.Eventually(t, func() bool {
		return len(applier.Events()) == 1
	}, 30*time.Second, 500*time.Millisecond)
	assert.Equal(t, "o1", applier.Events()[0].OrderID)
}
