package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"thermogrid/internal/config"
	heatmap "thermogrid/internal/modules/heatmap"
	"thermogrid/internal/modules/heatmap/service"
	"thermogrid/internal/modules/heatmap/source"
	heatmapviews "thermogrid/internal/modules/heatmap/views"
)

const (
	FormatSVG  = "svg"
	FormatHTML = "html"
)

// Render fetches the dataset at location once and writes the heatmap to w
// as a standalone SVG or HTML page. Nothing is cached or announced.
func Render(ctx context.Context, cfg config.Config, location string, w io.Writer, format string) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatSVG && format != FormatHTML {
		return fmt.Errorf("unknown format %q (allowed: svg, html)", format)
	}
	if location == "" {
		location = cfg.DatasetURL
	}

	layout := heatmap.Layout(cfg)
	// no server to answer tooltip requests
	layout.TooltipPath = ""

	svc := service.NewService(service.Options{
		Source: source.New(location, cfg.FetchTimeout),
		Layout: layout,
	})
	if err := svc.Load(ctx); err != nil {
		return err
	}
	c, err := svc.Chart()
	if err != nil {
		return err
	}

	if format == FormatSVG {
		return c.WriteSVG(w)
	}

	if err := heatmapviews.LoadTemplates(); err != nil {
		return err
	}
	summary, err := svc.Summary()
	if err != nil {
		return err
	}
	inline, err := c.InlineSVG()
	if err != nil {
		return err
	}
	return heatmapviews.RenderPage(w, heatmapviews.NewPageData(c, summary, inline))
}
