package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"thermogrid/internal/utils"
)

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db      *sqlx.DB
	dataset func() string
}

// NewHealthchecker reports database connectivity and the dataset status
// returned by dataset.
func NewHealthchecker(db *sqlx.DB, dataset func() string) healthchecker {
	return &healthcheckerImpl{db: db, dataset: dataset}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var ok int
	if err := h.db.GetContext(r.Context(), &ok, `SELECT 1`); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	status := "pending"
	if h.dataset != nil {
		status = h.dataset()
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "dataset": status})
}

func registerHealthcheck(mux *http.ServeMux, db *sqlx.DB, dataset func() string) {
	healthchecker := NewHealthchecker(db, dataset)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
