package getmenuitem

import (
	"context"
	"net/http"

	"github.com/corray333/food-ordering/internal/service/models/menuitem"
	"github.com/corray333/food-ordering/internal/transport/http/httpio"
)

type service interface {
	GetAvailableByID(ctx context.Context, id int64) (*menuitem.MenuItem, error)
}

type response struct {
	Item *menuitem.MenuItem `json:"item"`
}

func GetMenuItem(w http.ResponseWriter, r *http.Request, service service) {
	id, err := httpio.ParseID(r, "id")
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	item, err := service.GetAvailableByID(r.Context(), id)
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	httpio.WriteJSON(w, http.StatusOK, response{Item: item})
}
