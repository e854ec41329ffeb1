package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/netstore-backend/internal/analytics/types"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	"github.com/angelmondragon/netstore-backend/pkg/logger"
	"github.com/angelmondragon/netstore-backend/pkg/outbox/payloads"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "router-handler-test"})
}

func TestOrderCreatedHandlerInsertsOrderRow(t *testing.T) {
	writer := &fakeWriter{}
	handler := newOrderCreatedHandler(writer, testLogger())
	created := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	code := "NET10"
	event := &payloads.OrderCreatedEvent{
		OrderID:          uuid.New(),
		OrderNumber:      "ORD202610180001",
		UserID:           uuid.New(),
		Subtotal:         decimal.NewFromInt(2990000),
		DiscountAmount:   decimal.NewFromInt(299000),
		ShippingFee:      decimal.NewFromInt(32500),
		TotalAmount:      decimal.NewFromInt(2723500),
		DiscountCode:     &code,
		ShippingMethodID: uuid.New(),
		Items: []payloads.OrderLine{
			{ProductItemID: uuid.New(), SKU: "SKU-AX3", Quantity: 2, UnitPrice: decimal.NewFromInt(1495000), LineTotal: decimal.NewFromInt(2990000)},
			{ProductItemID: uuid.New(), SKU: "SKU-CAT6", Quantity: 3, UnitPrice: decimal.Zero, LineTotal: decimal.Zero},
		},
		CreatedAt: created,
	}
	envelope := types.Envelope{
		EventID:     "event-id",
		EventType:   enums.EventOrderCreated,
		OccurredAt:  created.Add(time.Second),
		ActorUserID: event.UserID.String(),
	}

	if err := handler.Handle(context.Background(), envelope, event); err != nil {
		t.Fatalf("handle order_created: %v", err)
	}
	if len(writer.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(writer.inserted))
	}

	row := writer.inserted[0]
	if row.EventID != "event-id" || row.EventType != "order_created" {
		t.Fatalf("unexpected event columns: %s %s", row.EventID, row.EventType)
	}
	if !row.OccurredAt.Equal(created) {
		t.Fatalf("expected created_at to win over envelope time, got %v", row.OccurredAt)
	}
	if row.OrderID != event.OrderID.String() || row.OrderNumber != event.OrderNumber {
		t.Fatalf("order columns mismatch: %s %s", row.OrderID, row.OrderNumber)
	}
	if row.Status != "pending" {
		t.Fatalf("unexpected status %s", row.Status)
	}
	if row.TotalAmount == nil || *row.TotalAmount != "2723500" {
		t.Fatalf("total mismatch: %v", row.TotalAmount)
	}
	if row.DiscountCode == nil || *row.DiscountCode != "NET10" {
		t.Fatalf("discount code mismatch: %v", row.DiscountCode)
	}
	if row.ItemCount == nil || *row.ItemCount != 5 {
		t.Fatalf("expected 5 units, got %v", row.ItemCount)
	}
	if !row.Items.Valid || !row.Payload.Valid {
		t.Fatal("expected items and payload json")
	}
	var items []map[string]any
	if err := json.Unmarshal([]byte(row.Items.JSONVal), &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 item entries, got %d", len(items))
	}
}

func TestOrderStatusChangedHandler(t *testing.T) {
	writer := &fakeWriter{}
	handler := newOrderStatusChangedHandler(writer, testLogger())
	admin := uuid.New()
	note := "packed"
	event := &payloads.OrderStatusChangedEvent{
		OrderID:     uuid.New(),
		OrderNumber: "ORD202610180002",
		UserID:      uuid.New(),
		FromStatus:  enums.OrderStatusConfirmed,
		ToStatus:    enums.OrderStatusProcessing,
		ChangedBy:   &admin,
		Note:        &note,
		ChangedAt:   time.Now().UTC(),
	}
	envelope := types.Envelope{EventID: "evt-2", EventType: enums.EventOrderStatusChanged}

	if err := handler.Handle(context.Background(), envelope, event); err != nil {
		t.Fatalf("handle order_status_changed: %v", err)
	}
	row := writer.inserted[0]
	if row.Status != "processing" {
		t.Fatalf("unexpected status %s", row.Status)
	}
	if row.PreviousStatus == nil || *row.PreviousStatus != "confirmed" {
		t.Fatalf("unexpected previous status %v", row.PreviousStatus)
	}
	if row.ActorID == nil || *row.ActorID != admin.String() {
		t.Fatalf("unexpected actor %v", row.ActorID)
	}
	if row.Note == nil || *row.Note != "packed" {
		t.Fatalf("unexpected note %v", row.Note)
	}
	if row.TotalAmount != nil {
		t.Fatal("status rows carry no amounts")
	}
}

func TestOrderCanceledHandler(t *testing.T) {
	writer := &fakeWriter{}
	handler := newOrderCanceledHandler(writer, testLogger())
	customer := uuid.New()
	event := &payloads.OrderCanceledEvent{
		OrderID:     uuid.New(),
		OrderNumber: "ORD202610180003",
		UserID:      customer,
		TotalAmount: decimal.NewFromInt(3022500),
		CanceledBy:  customer,
		Reason:      "changed my mind",
		CanceledAt:  time.Now().UTC(),
	}
	envelope := types.Envelope{EventID: "evt-3", EventType: enums.EventOrderCanceled}

	if err := handler.Handle(context.Background(), envelope, event); err != nil {
		t.Fatalf("handle order_canceled: %v", err)
	}
	row := writer.inserted[0]
	if row.Status != "cancelled" {
		t.Fatalf("unexpected status %s", row.Status)
	}
	if row.TotalAmount == nil || *row.TotalAmount != "3022500" {
		t.Fatalf("unexpected total %v", row.TotalAmount)
	}
	if row.Note == nil || *row.Note != "changed my mind" {
		t.Fatalf("unexpected reason %v", row.Note)
	}
}

func TestHandlerRejectsWrongPayloadType(t *testing.T) {
	handler := newOrderCanceledHandler(&fakeWriter{}, testLogger())
	err := handler.Handle(context.Background(), types.Envelope{}, &payloads.OrderCreatedEvent{})
	if err == nil {
		t.Fatal("expected error for mismatched payload")
	}
}

func TestHandlerPropagatesWriterError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("bigquery down")}
	handler := newOrderCreatedHandler(writer, testLogger())
	err := handler.Handle(context.Background(), types.Envelope{EventID: "evt"}, &payloads.OrderCreatedEvent{OrderID: uuid.New()})
	if err == nil {
		t.Fatal("expected writer error to propagate")
	}
}

func TestOrderEventRowSave(t *testing.T) {
	total := "100"
	row := types.OrderEventRow{EventID: "evt-9", OrderID: "o", TotalAmount: &total}
	values, insertID, err := row.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if insertID != "evt-9" {
		t.Fatalf("expected event id as insert id, got %s", insertID)
	}
	if values["total_amount"] != "100" {
		t.Fatalf("unexpected total %v", values["total_amount"])
	}
	if values["subtotal"] != nil || values["items"] != nil {
		t.Fatal("absent columns should be null")
	}
}
