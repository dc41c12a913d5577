package order

import (
	"time"

	"github.com/corray333/food-ordering/internal/service/models/currency"
	"github.com/corray333/food-ordering/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
)

// Order represents a placed order with its line items.
type Order struct {
	ID              int64                 `json:"id"`
	UserID          int64                 `json:"userId"`
	Status          Status                `json:"status"`
	Total           decimal.Decimal       `json:"total"`
	Currency        currency.Currency     `json:"currency"`
	DeliveryAddress string                `json:"deliveryAddress"`
	Phone           string                `json:"phone"`
	Notes           string                `json:"notes,omitempty"`
	EstimatedTime   string                `json:"estimatedTime,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
	Items           []orderitem.OrderItem `json:"items"`
}

// Line is one cart entry submitted by a client.
type Line struct {
	MenuItemID int64
	Quantity   int
}

// PlaceRequest is the input of order placement.
type PlaceRequest struct {
	UserID          int64
	Lines           []Line
	DeliveryAddress string
	Phone           string
	Notes           string
	// IdempotencyKey is optional. Requests sharing a key for the same user create one order.
	IdempotencyKey string
}
