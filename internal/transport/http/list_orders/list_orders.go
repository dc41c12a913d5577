package listorders

import (
	"context"
	"net/http"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/order"
	"github.com/corray333/food-ordering/internal/transport/http/httpio"
	authmw "github.com/corray333/food-ordering/internal/transport/http/middleware/auth"
	"github.com/gorilla/schema"
)

type service interface {
	GetOrdersForUser(ctx context.Context, model order.QueryOrdersModel) ([]order.Order, error)
}

type queryOrdersRequest struct {
	Status string `schema:"status,omitempty"`
	Limit  int    `schema:"limit,omitempty"`
	Offset int    `schema:"offset,omitempty"`
}

func (q *queryOrdersRequest) ToModel(userID int64) (order.QueryOrdersModel, error) {
	model := order.QueryOrdersModel{
		UserID: userID,
		Limit:  q.Limit,
		Offset: q.Offset,
	}

	if q.Status != "" {
		st, err := order.ParseStatus(q.Status)
		if err != nil {
			return order.QueryOrdersModel{}, err
		}
		model.Status = st
	}

	return model, nil
}

// Total is the number of orders on this page.
type response struct {
	Orders []order.Order `json:"orders"`
	Total  int           `json:"total"`
}

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	p, ok := authmw.PrincipalFromContext(r.Context())
	if !ok {
		httpio.WriteError(w, r, errs.ErrUnauthenticated)

		return
	}

	query := &queryOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		httpio.WriteError(w, r, errs.Validation("", "invalid query parameters"))

		return
	}

	model, err := query.ToModel(p.UserID)
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	orders, err := service.GetOrdersForUser(r.Context(), model)
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	httpio.WriteJSON(w, http.StatusOK, response{Orders: orders, Total: len(orders)})
}
