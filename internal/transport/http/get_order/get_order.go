package getorder

import (
	"context"
	"net/http"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/order"
	"github.com/corray333/food-ordering/internal/transport/http/httpio"
	authmw "github.com/corray333/food-ordering/internal/transport/http/middleware/auth"
)

type service interface {
	GetOrderByID(ctx context.Context, userID, id int64) (*order.Order, error)
}

type response struct {
	Order *order.Order `json:"order"`
}

func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	p, ok := authmw.PrincipalFromContext(r.Context())
	if !ok {
		httpio.WriteError(w, r, errs.ErrUnauthenticated)

		return
	}

	id, err := httpio.ParseID(r, "id")
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	o, err := service.GetOrderByID(r.Context(), p.UserID, id)
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	httpio.WriteJSON(w, http.StatusOK, response{Order: o})
}
