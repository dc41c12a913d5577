package listcategories

import (
	"context"
	"net/http"

	"github.com/corray333/food-ordering/internal/transport/http/httpio"
)

type service interface {
	Categories(ctx context.Context) ([]string, error)
}

type response struct {
	Categories []string `json:"categories"`
}

func ListCategories(w http.ResponseWriter, r *http.Request, service service) {
	categories, err := service.Categories(r.Context())
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	httpio.WriteJSON(w, http.StatusOK, response{Categories: categories})
}
