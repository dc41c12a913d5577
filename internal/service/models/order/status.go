package order

import (
	"time"

	"github.com/corray333/food-ordering/internal/service/errs"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// progress orders the happy-path statuses. Cancelled is outside of it.
var progress = map[Status]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusPreparing: 2,
	StatusReady:     3,
	StatusDelivered: 4,
}

func (s Status) String() string {
	return string(s)
}

// IsFinal reports whether no further fulfillment step applies.
func (s Status) IsFinal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Reached reports whether s is at or past target on the happy path.
func (s Status) Reached(target Status) bool {
	cur, ok := progress[s]
	if !ok {
		return s == target
	}
	want, ok := progress[target]
	if !ok {
		return false
	}

	return cur >= want
}

// ParseStatus accepts only members of the fixed enumeration.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", errs.Validation("status", "invalid order status")
	}
}

// StatusSnapshot is the status view served to the admin API and cached in Redis.
type StatusSnapshot struct {
	OrderID   int64     `json:"orderId"`
	UserID    int64     `json:"userId"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}
