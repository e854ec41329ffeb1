package router

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/netstore-backend/internal/analytics/types"
	analyticswriter "github.com/angelmondragon/netstore-backend/internal/analytics/writer"
)

// baseRow fills the columns every order event carries.
func baseRow(envelope types.Envelope, occurred time.Time, orderID uuid.UUID, orderNumber string, userID uuid.UUID, payload any) (types.OrderEventRow, error) {
	if occurred.IsZero() {
		occurred = envelope.OccurredAt
	}

	payloadJSON, err := analyticswriter.EncodeJSON(payload)
	if err != nil {
		return types.OrderEventRow{}, fmt.Errorf("encode payload json: %w", err)
	}

	row := types.OrderEventRow{
		EventID:     envelope.EventID,
		EventType:   string(envelope.EventType),
		OccurredAt:  occurred.UTC(),
		OrderID:     orderID.String(),
		OrderNumber: orderNumber,
		UserID:      userID.String(),
		Payload:     payloadJSON,
	}
	if envelope.ActorUserID != "" {
		row.ActorID = stringPtr(envelope.ActorUserID)
	}
	return row, nil
}

func stringPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func amountPtr(value decimal.Decimal) *string {
	s := value.String()
	return &s
}

func int64Ptr(value int64) *int64 {
	return &value
}
