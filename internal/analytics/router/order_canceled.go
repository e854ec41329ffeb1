package router

import (
	"context"
	"fmt"

	"github.com/angelmondragon/netstore-backend/internal/analytics/types"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	"github.com/angelmondragon/netstore-backend/pkg/logger"
	"github.com/angelmondragon/netstore-backend/pkg/outbox/payloads"
)

type orderCanceledHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderCanceledHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderCanceledHandler{writer: writer, logg: logg}
}

func (h *orderCanceledHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderCanceledEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_canceled")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":   envelope.EventType,
		"order_id":     event.OrderID,
		"order_number": event.OrderNumber,
	})

	row, err := baseRow(envelope, event.CanceledAt, event.OrderID, event.OrderNumber, event.UserID, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order row", err)
		return err
	}
	row.Status = string(enums.OrderStatusCancelled)
	row.TotalAmount = amountPtr(event.TotalAmount)
	row.ActorID = stringPtr(event.CanceledBy.String())
	row.Note = stringPtr(event.Reason)

	if err := h.writer.InsertOrderEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order event row", err)
		return err
	}

	h.logg.Info(logCtx, "order_canceled handler inserted order event row")
	return nil
}
