package controller

import (
	"bytes"
	"net/http"
	"sync"

	"thermogrid/internal/modules/heatmap/chart"
	"thermogrid/internal/modules/heatmap/service"
)

type HeatmapController interface {
	RegisterRoutes(mux *http.ServeMux, api func(http.Handler) http.Handler)
}

type heatmapControllerImpl struct {
	service service.HeatmapService

	mu     sync.Mutex
	svgFor *chart.Chart
	svg    []byte
	inline string
}

func NewHeatmapController(svc service.HeatmapService) HeatmapController {
	return &heatmapControllerImpl{service: svc}
}

// RegisterRoutes mounts the page, fragment and JSON routes. api wraps the
// /api/v1 handlers (CORS); nil leaves them unwrapped.
func (c *heatmapControllerImpl) RegisterRoutes(mux *http.ServeMux, api func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /", c.handlePage)
	mux.HandleFunc("GET /heatmap.svg", c.handleSVG)
	mux.HandleFunc("GET "+chart.DefaultTooltipPath, c.handleTooltipPartial)

	for path, h := range map[string]http.HandlerFunc{
		"/api/v1/dataset":      c.handleDataset,
		"/api/v1/observations": c.handleObservations,
		"/api/v1/legend":       c.handleLegend,
	} {
		if api == nil {
			mux.Handle("GET "+path, h)
			continue
		}
		wrapped := api(h)
		mux.Handle("GET "+path, wrapped)
		// preflight requests are answered by the wrapper
		mux.Handle("OPTIONS "+path, wrapped)
	}
}

// rendered returns the SVG document and its inline form for ch, writing
// them once per chart.
func (c *heatmapControllerImpl) rendered(ch *chart.Chart) ([]byte, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch != nil && c.svgFor == ch {
		return c.svg, c.inline, nil
	}
	var buf bytes.Buffer
	if err := ch.WriteSVG(&buf); err != nil {
		return nil, "", err
	}
	svg := buf.Bytes()
	inline := string(svg)
	if i := bytes.Index(svg, []byte("<svg")); i > 0 {
		inline = string(svg[i:])
	}
	c.svgFor, c.svg, c.inline = ch, svg, inline
	return c.svg, c.inline, nil
}
