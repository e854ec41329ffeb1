package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderEventRow is one row of the order_events fact table. Money columns are
// NUMERIC and streamed as decimal strings.
type OrderEventRow struct {
	EventID          string
	EventType        string
	OccurredAt       time.Time
	OrderID          string
	OrderNumber      string
	UserID           string
	Status           string
	PreviousStatus   *string
	Subtotal         *string
	DiscountAmount   *string
	ShippingFee      *string
	TotalAmount      *string
	DiscountCode     *string
	ShippingMethodID *string
	ItemCount        *int64
	ActorID          *string
	Note             *string
	Items            cbigquery.NullJSON
	Payload          cbigquery.NullJSON
}

// Save implements bigquery.ValueSaver. The event id doubles as the insert id so
// BigQuery drops duplicate deliveries on a best-effort basis.
func (r *OrderEventRow) Save() (map[string]cbigquery.Value, string, error) {
	row := map[string]cbigquery.Value{
		"event_id":           r.EventID,
		"event_type":         r.EventType,
		"occurred_at":        r.OccurredAt.UTC(),
		"order_id":           r.OrderID,
		"order_number":       r.OrderNumber,
		"user_id":            r.UserID,
		"status":             r.Status,
		"previous_status":    optional(r.PreviousStatus),
		"subtotal":           optional(r.Subtotal),
		"discount_amount":    optional(r.DiscountAmount),
		"shipping_fee":       optional(r.ShippingFee),
		"total_amount":       optional(r.TotalAmount),
		"discount_code":      optional(r.DiscountCode),
		"shipping_method_id": optional(r.ShippingMethodID),
		"actor_id":           optional(r.ActorID),
		"note":               optional(r.Note),
		"items":              jsonValue(r.Items),
		"payload":            jsonValue(r.Payload),
	}
	if r.ItemCount != nil {
		row["item_count"] = *r.ItemCount
	} else {
		row["item_count"] = nil
	}
	return row, r.EventID, nil
}

func optional(value *string) cbigquery.Value {
	if value == nil {
		return nil
	}
	return *value
}

func jsonValue(value cbigquery.NullJSON) cbigquery.Value {
	if !value.Valid {
		return nil
	}
	return value.JSONVal
}
