package httpapi

import (
	"net/http"

	"github.com/jmoiron/sqlx"
)

// NewMux returns a mux serving /healthz and the files under staticDir at
// /static/. Feature routes are registered on it by the caller.
func NewMux(db *sqlx.DB, staticDir string, dataset func() string) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, dataset)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	return mux
}
