package heatmap

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"thermogrid/internal/config"
	"thermogrid/internal/modules/heatmap/chart"
	"thermogrid/internal/modules/heatmap/controller"
	"thermogrid/internal/modules/heatmap/repository"
	"thermogrid/internal/modules/heatmap/service"
	"thermogrid/internal/modules/heatmap/source"
)

// Layout returns the chart layout configured by cfg, with the tooltip
// fragment route enabled.
func Layout(cfg config.Config) chart.Layout {
	return chart.Layout{
		Width:          cfg.ChartWidth,
		Height:         cfg.ChartHeight,
		Padding:        cfg.ChartPadding,
		LegendSwatches: cfg.LegendSwatches,
		TooltipPath:    chart.DefaultTooltipPath,
	}
}

// NewService builds the heatmap service for cfg. db and announcer may be
// nil.
func NewService(cfg config.Config, db *sqlx.DB, announcer service.Announcer) service.HeatmapService {
	opts := service.Options{
		Source:    source.New(cfg.DatasetURL, cfg.FetchTimeout),
		Announcer: announcer,
		Cache:     cfg.CacheDataset,
		Layout:    Layout(cfg),
	}
	if db != nil {
		opts.Repository = repository.NewRepository(db)
	}
	return service.NewService(opts)
}

func RegisterFeature(mux *http.ServeMux, svc service.HeatmapService, api func(http.Handler) http.Handler) {
	heatmapController := controller.NewHeatmapController(svc)
	heatmapController.RegisterRoutes(mux, api)
}
