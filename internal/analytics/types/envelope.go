package types

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/netstore-backend/pkg/enums"
)

// ErrUnsupportedEventType marks events the analytics pipeline does not record.
// The worker acks these instead of redelivering them.
var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Envelope is an order event as received from the orders subscription.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	ActorUserID   string                    `json:"actor_user_id,omitempty"`
	Payload       json.RawMessage           `json:"payload"`
}
