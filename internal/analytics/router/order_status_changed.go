package router

import (
	"context"
	"fmt"

	"github.com/angelmondragon/netstore-backend/internal/analytics/types"
	"github.com/angelmondragon/netstore-backend/pkg/logger"
	"github.com/angelmondragon/netstore-backend/pkg/outbox/payloads"
)

type orderStatusChangedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderStatusChangedHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderStatusChangedHandler{writer: writer, logg: logg}
}

func (h *orderStatusChangedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderStatusChangedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_status_changed")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":  envelope.EventType,
		"order_id":    event.OrderID,
		"from_status": event.FromStatus,
		"to_status":   event.ToStatus,
	})

	row, err := baseRow(envelope, event.ChangedAt, event.OrderID, event.OrderNumber, event.UserID, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order row", err)
		return err
	}
	row.Status = string(event.ToStatus)
	row.PreviousStatus = stringPtr(string(event.FromStatus))
	if event.ChangedBy != nil {
		row.ActorID = stringPtr(event.ChangedBy.String())
	}
	if event.Note != nil {
		row.Note = stringPtr(*event.Note)
	}

	if err := h.writer.InsertOrderEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order event row", err)
		return err
	}

	h.logg.Info(logCtx, "order_status_changed handler inserted order event row")
	return nil
}
