package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"thermogrid/internal/config"
)

func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(slog.Default(), handler),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
