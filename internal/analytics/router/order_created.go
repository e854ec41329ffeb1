package router

import (
	"context"
	"fmt"

	"github.com/angelmondragon/netstore-backend/internal/analytics/types"
	analyticswriter "github.com/angelmondragon/netstore-backend/internal/analytics/writer"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	"github.com/angelmondragon/netstore-backend/pkg/logger"
	"github.com/angelmondragon/netstore-backend/pkg/outbox/payloads"
)

type orderCreatedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderCreatedHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderCreatedHandler{writer: writer, logg: logg}
}

func (h *orderCreatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_created")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":   envelope.EventType,
		"order_id":     event.OrderID,
		"order_number": event.OrderNumber,
	})

	row, err := baseRow(envelope, event.CreatedAt, event.OrderID, event.OrderNumber, event.UserID, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order row", err)
		return err
	}
	items, err := analyticswriter.EncodeJSON(event.Items)
	if err != nil {
		h.logg.Error(logCtx, "failed to encode order items", err)
		return err
	}

	var units int64
	for _, item := range event.Items {
		units += int64(item.Quantity)
	}

	row.Status = string(enums.OrderStatusPending)
	row.Subtotal = amountPtr(event.Subtotal)
	row.DiscountAmount = amountPtr(event.DiscountAmount)
	row.ShippingFee = amountPtr(event.ShippingFee)
	row.TotalAmount = amountPtr(event.TotalAmount)
	if event.DiscountCode != nil {
		row.DiscountCode = stringPtr(*event.DiscountCode)
	}
	row.ShippingMethodID = stringPtr(event.ShippingMethodID.String())
	row.ItemCount = int64Ptr(units)
	row.Items = items

	if err := h.writer.InsertOrderEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order event row", err)
		return err
	}

	h.logg.Info(logCtx, "order_created handler inserted order event row")
	return nil
}
