package placeorder

import (
	"context"
	"net/http"
	"strings"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/order"
	"github.com/corray333/food-ordering/internal/transport/http/httpio"
	authmw "github.com/corray333/food-ordering/internal/transport/http/middleware/auth"
)

// IdempotencyKeyHeader lets a client retry a placement without creating a second order.
const IdempotencyKeyHeader = "Idempotency-Key"

type service interface {
	PlaceOrder(ctx context.Context, req order.PlaceRequest) (*order.Order, error)
}

type lineRequest struct {
	MenuItemID int64 `json:"menuItemId"`
	Quantity   int   `json:"quantity"`
}

// Cart checks live in the service so that they fail in a fixed order.
type placeOrderRequest struct {
	Items           []lineRequest `json:"items"`
	DeliveryAddress string        `json:"deliveryAddress" validate:"max=255"`
	Phone           string        `json:"phone" validate:"max=32"`
	Notes           string        `json:"notes" validate:"max=500"`
}

type response struct {
	Order *order.Order `json:"order"`
}

func PlaceOrder(w http.ResponseWriter, r *http.Request, service service) {
	p, ok := authmw.PrincipalFromContext(r.Context())
	if !ok {
		httpio.WriteError(w, r, errs.ErrUnauthenticated)

		return
	}

	var req placeOrderRequest
	if err := httpio.DecodeJSON(r, &req); err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if len(key) > 128 {
		httpio.WriteError(w, r, errs.Validation(IdempotencyKeyHeader, "must be at most 128 characters"))

		return
	}

	lines := make([]order.Line, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, order.Line{MenuItemID: it.MenuItemID, Quantity: it.Quantity})
	}

	placed, err := service.PlaceOrder(r.Context(), order.PlaceRequest{
		UserID:          p.UserID,
		Lines:           lines,
		DeliveryAddress: req.DeliveryAddress,
		Phone:           req.Phone,
		Notes:           req.Notes,
		IdempotencyKey:  key,
	})
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	httpio.WriteJSON(w, http.StatusCreated, response{Order: placed})
}
