package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/pkg/config"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	"github.com/angelmondragon/netstore-backend/pkg/logger"
	"github.com/angelmondragon/netstore-backend/pkg/metrics"
	"github.com/angelmondragon/netstore-backend/pkg/outbox"
	"github.com/angelmondragon/netstore-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/netstore-backend/pkg/outbox/registry"
)

const ordersTopic = "netstore-order-events"

func TestRelayPublishesEveryOrderEventType(t *testing.T) {
	created := orderCreatedRow(t, 0)
	changed := orderStatusChangedRow(t, 0)
	canceled := orderCanceledRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{created, changed, canceled}}
	pub := &fakePublisher{}
	opened := 0
	relay := newTestRelay(t, repo, &fakeDLQRepo{}, func(topic string) publisher {
		opened++
		if topic != ordersTopic {
			t.Fatalf("unexpected topic %q", topic)
		}
		return pub
	}, nil)

	n, err := relay.drain(context.Background())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if n != 3 || len(repo.published) != 3 {
		t.Fatalf("expected 3 published rows, settled %d published %d", n, len(repo.published))
	}
	if opened != 1 {
		t.Fatalf("expected the orders topic publisher opened once, got %d", opened)
	}
	for i, want := range []enums.OutboxEventType{enums.EventOrderCreated, enums.EventOrderStatusChanged, enums.EventOrderCanceled} {
		attrs := pub.sent[i].Attributes
		if attrs["event_type"] != string(want) {
			t.Fatalf("message %d: event_type %q want %q", i, attrs["event_type"], want)
		}
		if attrs["order_id"] != repo.events[i].AggregateID.String() || attrs["aggregate_type"] != "order" {
			t.Fatalf("message %d: unexpected attributes %v", i, attrs)
		}
		if !bytes.Equal(pub.sent[i].Data, repo.events[i].Payload) {
			t.Fatalf("message %d: body must be the stored envelope", i)
		}
	}
}

func TestRelayRetriesTransientFailureAndKeepsGoing(t *testing.T) {
	created := orderCreatedRow(t, 0)
	canceled := orderCanceledRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{created, canceled}}
	pub := &fakePublisher{errs: []error{errors.New("pubsub: deadline exceeded"), nil}}
	reg := prometheus.NewRegistry()
	relay := newTestRelay(t, repo, &fakeDLQRepo{}, staticOpen(pub), reg)

	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(repo.failed) != 1 || repo.failed[0] != created.ID {
		t.Fatalf("expected order_created marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != canceled.ID {
		t.Fatalf("expected order_canceled published, got %v", repo.published)
	}

	expected := `
# HELP outbox_events_published_total Outbox rows delivered to Pub/Sub by event type.
# TYPE outbox_events_published_total counter
outbox_events_published_total{event_type="order_canceled"} 1
# HELP outbox_publish_failures_total Retryable publish failures by event type.
# TYPE outbox_publish_failures_total counter
outbox_publish_failures_total{event_type="order_created"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "outbox_events_published_total", "outbox_publish_failures_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestRelayDeadLettersStatusChangeAtMaxAttempts(t *testing.T) {
	changed := orderStatusChangedRow(t, 4)
	repo := &fakeRepo{events: []models.OutboxEvent{changed}}
	dlq := &fakeDLQRepo{}
	pub := &fakePublisher{errs: []error{errors.New("pubsub: unavailable")}}
	relay := newTestRelay(t, repo, dlq, staticOpen(pub), nil)

	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(dlq.entries) != 1 {
		t.Fatalf("expected one dlq entry, got %d", len(dlq.entries))
	}
	entry := dlq.entries[0]
	if entry.ErrorReason != enums.OutboxDLQReasonMaxAttempts || entry.EventType != enums.EventOrderStatusChanged {
		t.Fatalf("unexpected dlq entry %+v", entry)
	}
	if entry.AggregateID != changed.AggregateID || !bytes.Equal(entry.Payload, changed.Payload) {
		t.Fatalf("dlq entry must keep the order id and payload")
	}
	if len(repo.terminal) != 1 || len(repo.failed) != 0 {
		t.Fatalf("expected terminal mark only, terminal=%v failed=%v", repo.terminal, repo.failed)
	}
}

func TestRelayDeadLettersMalformedEnvelope(t *testing.T) {
	row := orderCreatedRow(t, 0)
	row.Payload = json.RawMessage(`{"version":1,"eventId":"x","eventType":"order_created","data":null}`)
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	dlq := &fakeDLQRepo{}
	pub := &fakePublisher{}
	relay := newTestRelay(t, repo, dlq, staticOpen(pub), nil)

	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(pub.sent) != 0 {
		t.Fatalf("malformed row must not reach pubsub")
	}
	if len(dlq.entries) != 1 || dlq.entries[0].ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("expected non_retryable dlq entry, got %+v", dlq.entries)
	}
}

func TestRelayDeadLettersPermanentPublishError(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{orderCanceledRow(t, 0)}}
	dlq := &fakeDLQRepo{}
	pub := &fakePublisher{errs: []error{registry.NewNonRetryableError(errors.New("message too large"))}}
	relay := newTestRelay(t, repo, dlq, staticOpen(pub), nil)

	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(dlq.entries) != 1 || dlq.entries[0].ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("expected non_retryable dlq entry, got %+v", dlq.entries)
	}
}

func TestRelayDeadLettersUnroutableTopic(t *testing.T) {
	canceled := orderCanceledRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{canceled}}
	dlq := &fakeDLQRepo{}
	reg := prometheus.NewRegistry()
	relay := newTestRelay(t, repo, dlq, func(string) publisher { return nil }, reg)

	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(dlq.entries) != 1 || dlq.entries[0].ErrorReason != enums.OutboxDLQReasonUnroutable {
		t.Fatalf("expected unroutable dlq entry, got %+v", dlq.entries)
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != canceled.ID || len(repo.published) != 0 {
		t.Fatalf("expected row marked terminal only")
	}
	expected := `
# HELP outbox_events_dead_lettered_total Outbox rows moved to the DLQ by reason.
# TYPE outbox_events_dead_lettered_total counter
outbox_events_dead_lettered_total{reason="unroutable"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "outbox_events_dead_lettered_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	relay := newTestRelay(t, &fakeRepo{}, &fakeDLQRepo{}, staticOpen(&fakePublisher{}), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := relay.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNextBackoffCaps(t *testing.T) {
	base := 500 * time.Millisecond
	if got := nextBackoff(0, base, maxBackoff); got != time.Second {
		t.Fatalf("expected doubled base, got %v", got)
	}
	if got := nextBackoff(8*time.Second, base, maxBackoff); got != maxBackoff {
		t.Fatalf("expected cap %v, got %v", maxBackoff, got)
	}
}

func newTestRelay(t *testing.T, repo *fakeRepo, dlq *fakeDLQRepo, open func(string) publisher, reg prometheus.Registerer) *Relay {
	t.Helper()
	events, err := registry.NewEventRegistry(config.PubSubConfig{OrdersTopic: ordersTopic})
	if err != nil {
		t.Fatalf("event registry: %v", err)
	}
	relay, err := NewRelay(RelayParams{
		Outbox:     config.OutboxConfig{BatchSize: 10, PollIntervalMS: 100, MaxAttempts: 5},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:         fakeDB{},
		Repository: repo,
		DLQ:        dlq,
		Registry:   events,
		Metrics:    metrics.NewOutboxMetrics(reg),
		Open:       open,
	})
	if err != nil {
		t.Fatalf("new relay: %v", err)
	}
	return relay
}

func staticOpen(p publisher) func(string) publisher {
	return func(string) publisher { return p }
}

func outboxRow(t *testing.T, eventType enums.OutboxEventType, orderID uuid.UUID, attempts int, data any) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		EventType:  string(eventType),
		OccurredAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		Data:       raw,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       envelope,
		AttemptCount:  attempts,
	}
}

func orderCreatedRow(t *testing.T, attempts int) models.OutboxEvent {
	orderID := uuid.New()
	return outboxRow(t, enums.EventOrderCreated, orderID, attempts, payloads.OrderCreatedEvent{
		OrderID:     orderID,
		OrderNumber: "ORD202603020001",
		UserID:      uuid.New(),
		Subtotal:    decimal.NewFromInt(4500000),
		ShippingFee: decimal.NewFromInt(30000),
		TotalAmount: decimal.NewFromInt(4530000),
		Items: []payloads.OrderLine{{
			ProductItemID: uuid.New(), SKU: "CRS326-24G", Quantity: 1,
			UnitPrice: decimal.NewFromInt(4500000), LineTotal: decimal.NewFromInt(4500000),
		}},
	})
}

func orderStatusChangedRow(t *testing.T, attempts int) models.OutboxEvent {
	orderID := uuid.New()
	return outboxRow(t, enums.EventOrderStatusChanged, orderID, attempts, payloads.OrderStatusChangedEvent{
		OrderID:     orderID,
		OrderNumber: "ORD202603020002",
		UserID:      uuid.New(),
		FromStatus:  enums.OrderStatusConfirmed,
		ToStatus:    enums.OrderStatusShipping,
	})
}

func orderCanceledRow(t *testing.T, attempts int) models.OutboxEvent {
	orderID := uuid.New()
	return outboxRow(t, enums.EventOrderCanceled, orderID, attempts, payloads.OrderCanceledEvent{
		OrderID:     orderID,
		OrderNumber: "ORD202603020003",
		UserID:      uuid.New(),
		TotalAmount: decimal.NewFromInt(1890000),
		CanceledBy:  uuid.New(),
		Reason:      "ordered wrong PoE model",
	})
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

// fakePublisher answers each Publish with the next queued error; an empty
// queue means success.
type fakePublisher struct {
	errs []error
	sent []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.sent = append(f.sent, msg)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	return fakeResult{err: err}
}

type fakeResult struct{ err error }

func (r fakeResult) Get(context.Context) (string, error) { return "srv-1", r.err }
