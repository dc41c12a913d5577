package updatestatus

import (
	"context"
	"net/http"

	"github.com/corray333/food-ordering/internal/service/models/order"
	"github.com/corray333/food-ordering/internal/transport/http/httpio"
)

type service interface {
	UpdateStatus(ctx context.Context, id int64, status string) (*order.StatusSnapshot, error)
}

// Enum membership is checked by the service.
type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type response struct {
	Message string       `json:"message"`
	Status  order.Status `json:"status"`
}

func UpdateStatus(w http.ResponseWriter, r *http.Request, service service) {
	id, err := httpio.ParseID(r, "id")
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	var req updateStatusRequest
	if err := httpio.DecodeJSON(r, &req); err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	snap, err := service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	httpio.WriteJSON(w, http.StatusOK, response{Message: "order status updated", Status: snap.Status})
}
