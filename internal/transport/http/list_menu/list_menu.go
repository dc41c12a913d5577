package listmenu

import (
	"context"
	"net/http"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/menuitem"
	"github.com/corray333/food-ordering/internal/transport/http/httpio"
	"github.com/gorilla/schema"
)

type service interface {
	ListAvailable(ctx context.Context, filter menuitem.Filter) ([]menuitem.MenuItem, error)
}

type listMenuRequest struct {
	Category string `schema:"category"`
	Search   string `schema:"search"`
}

type response struct {
	Items []menuitem.MenuItem `json:"items"`
}

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

func ListMenu(w http.ResponseWriter, r *http.Request, service service) {
	var query listMenuRequest
	if err := decoder.Decode(&query, r.URL.Query()); err != nil {
		httpio.WriteError(w, r, errs.Validation("", "invalid query parameters"))

		return
	}

	items, err := service.ListAvailable(r.Context(), menuitem.Filter{
		Category: query.Category,
		Search:   query.Search,
	})
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	httpio.WriteJSON(w, http.StatusOK, response{Items: items})
}
