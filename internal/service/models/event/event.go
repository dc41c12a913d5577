package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"

	Version = 1
)

// Envelope wraps every published event.
type Envelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	EventVersion  int             `json:"eventVersion"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedItem struct {
	MenuItemID int64           `json:"menuItemId"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

type OrderPlaced struct {
	OrderID  int64             `json:"orderId"`
	UserID   int64             `json:"userId"`
	Total    decimal.Decimal   `json:"total"`
	Currency string            `json:"currency"`
	Items    []OrderPlacedItem `json:"items"`
	PlacedAt time.Time         `json:"placedAt"`
}

type OrderStatusChanged struct {
	OrderID   int64     `json:"orderId"`
	UserID    int64     `json:"userId"`
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
}

// NewEnvelope marshals payload and stamps it with a fresh event id.
func NewEnvelope(eventType, producer string, orderID int64, at time.Time, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  Version,
		OccurredAt:    at,
		Producer:      producer,
		CorrelationID: fmt.Sprintf("%d", orderID),
		Payload:       raw,
	}, nil
}

// DecodeOrderPlaced parses an envelope body carrying an order.placed event.
func DecodeOrderPlaced(body []byte) (Envelope, OrderPlaced, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, OrderPlaced{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	if env.EventType != TypeOrderPlaced {
		return env, OrderPlaced{}, fmt.Errorf("unexpected event type %q", env.EventType)
	}

	var placed OrderPlaced
	if err := json.Unmarshal(env.Payload, &placed); err != nil {
		return env, OrderPlaced{}, fmt.Errorf("failed to unmarshal order.placed payload: %w", err)
	}
	if placed.OrderID <= 0 {
		return env, OrderPlaced{}, fmt.Errorf("order.placed without order id")
	}

	return env, placed, nil
}
