package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"

	"thermogrid/internal/config"
)

const AppName = "thermogrid"

// New returns the process logger. Development builds (version "dev") get
// coloured tint output; anything else logs JSON tagged with version and env.
// The render command passes stderr so stdout stays free for the chart.
func New(cfg config.Config, version string, w io.Writer) *slog.Logger {
	if version == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  cfg.LogLevel <= slog.LevelDebug,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", AppName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", AppName,
		"version", version,
		"env", cfg.AppEnv,
	)
}
