package event

import (
	"encoding/json"
	"time"
)

const (
	TopicOrderEvents = "order-events"

	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID      string          `json:"event_id"`      // uuid
	EventType    string          `json:"event_type"`    // 上のconstのどれか
	EventVersion int             `json:"event_version"` // 1
	OccurredAt   time.Time       `json:"occurred_at"`   // RFC3339
	Producer     string          `json:"producer"`      // e.g. "order-api"
	Payload      json.RawMessage `json:"payload"`
}

// ---- Payload ----

type ItemLine struct {
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unit_price"` // NUMERIC -> string
}

type OrderPlacedPayload struct {
	OrderID int64      `json:"order_id"`
	UserID  int64      `json:"user_id"`
	Items   []ItemLine `json:"items"`
	Total   string     `json:"total"`
}

type OrderStatusChangedPayload struct {
	OrderID int64  `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}
