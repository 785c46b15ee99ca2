package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/shop/internal/transport/http/response"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type status struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health reports 200 when the database answers and 503 otherwise.
func Health(w http.ResponseWriter, r *http.Request, db pinger) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		slog.Warn("Health check failed", "error", err)
		response.JSON(w, http.StatusServiceUnavailable, status{Status: "degraded", Database: "unavailable"})

		return
	}

	response.JSON(w, http.StatusOK, status{Status: "ok", Database: "ok"})
}
