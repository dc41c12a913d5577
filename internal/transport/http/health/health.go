package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/food-ordering/internal/transport/http/httpio"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health reports whether the API can reach its database.
func Health(w http.ResponseWriter, r *http.Request, db pinger) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		slog.Warn("Health check failed", "error", err)
		httpio.WriteJSON(w, http.StatusServiceUnavailable, response{Status: "unavailable", Timestamp: time.Now().UTC()})

		return
	}

	httpio.WriteJSON(w, http.StatusOK, response{Status: "ok", Timestamp: time.Now().UTC()})
}
