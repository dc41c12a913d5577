package menuitem

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is a catalog entry.
type MenuItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image"`
	IsAvailable bool            `json:"isAvailable"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Filter narrows ListAvailable. Empty fields do not filter.
type Filter struct {
	Category string
	Search   string
}
