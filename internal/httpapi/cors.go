package httpapi

import (
	"net/http"

	"github.com/go-chi/cors"
)

// NewCORS returns the middleware applied to the JSON API. An empty
// origins list allows every origin.
func NewCORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}
