package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"thermogrid/internal/modules/heatmap/chart"
	"thermogrid/internal/modules/heatmap/service"
	"thermogrid/internal/modules/heatmap/types"
	"thermogrid/internal/modules/heatmap/views"
	"thermogrid/internal/utils"
)

// writeUnavailable answers 503 until the dataset is loaded, and after a
// failed load.
func writeUnavailable(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrNotLoaded) {
		utils.WriteUnavailable(w, "5", "dataset is still loading")
		return
	}
	utils.WriteUnavailable(w, "5", "dataset unavailable: "+err.Error())
}

func (c *heatmapControllerImpl) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	ch, err := c.service.Chart()
	if err != nil {
		writeUnavailable(w, err)
		return
	}
	summary, err := c.service.Summary()
	if err != nil {
		writeUnavailable(w, err)
		return
	}
	_, inline, err := c.rendered(ch)
	if err != nil {
		slog.Error("page: svg render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	var buf bytes.Buffer
	if err := views.RenderPage(&buf, views.NewPageData(ch, summary, inline)); err != nil {
		slog.Error("page template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *heatmapControllerImpl) handleSVG(w http.ResponseWriter, r *http.Request) {
	ch, err := c.service.Chart()
	if err != nil {
		writeUnavailable(w, err)
		return
	}
	svg, _, err := c.rendered(ch)
	if err != nil {
		slog.Error("svg render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	utils.WriteBody(w, http.StatusOK, "image/svg+xml", svg)
}

func (c *heatmapControllerImpl) handleTooltipPartial(w http.ResponseWriter, r *http.Request) {
	year, month, present, err := parseTooltipQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	data := views.TooltipData{}
	if present {
		ds, err := c.service.Dataset()
		if err != nil {
			writeUnavailable(w, err)
			return
		}
		o, ok := ds.Find(year, month)
		if !ok {
			utils.WriteError(w, http.StatusNotFound, "no observation for that year and month")
			return
		}
		data = views.NewTooltip(ds, o)
	}

	var buf bytes.Buffer
	if err := views.RenderTooltipPartial(&buf, &data); err != nil {
		slog.Error("tooltip partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *heatmapControllerImpl) handleDataset(w http.ResponseWriter, r *http.Request) {
	summary, err := c.service.Summary()
	if err != nil {
		writeUnavailable(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (c *heatmapControllerImpl) handleObservations(w http.ResponseWriter, r *http.Request) {
	q, err := parseObservationsQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ds, err := c.service.Dataset()
	if err != nil {
		writeUnavailable(w, err)
		return
	}

	out := make([]types.ObservationView, 0, min(q.Limit, len(ds.Observations)))
	for _, o := range ds.Observations {
		if q.Year != nil && o.Year != *q.Year {
			continue
		}
		if q.Month != nil && o.Month != *q.Month {
			continue
		}
		out = append(out, types.ObservationView{
			Year:        o.Year,
			Month:       o.Month,
			MonthName:   o.MonthName(),
			Variance:    o.Variance,
			Temperature: ds.Temperature(o),
		})
		if len(out) == q.Limit {
			break
		}
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

type legendSwatch struct {
	Lo   float64 `json:"lo"`
	Hi   float64 `json:"hi"`
	Fill string  `json:"fill"`
}

type legendResponse struct {
	Min        float64        `json:"min"`
	Mid        float64        `json:"mid"`
	Max        float64        `json:"max"`
	Thresholds []float64      `json:"thresholds"`
	Swatches   []legendSwatch `json:"swatches"`
}

func (c *heatmapControllerImpl) handleLegend(w http.ResponseWriter, r *http.Request) {
	ch, err := c.service.Chart()
	if err != nil {
		writeUnavailable(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newLegendResponse(ch))
}

func newLegendResponse(ch *chart.Chart) legendResponse {
	resp := legendResponse{
		Min:        ch.Colors.Min,
		Mid:        ch.Colors.Mid,
		Max:        ch.Colors.Max,
		Thresholds: make([]float64, len(ch.Legend.Thresholds)),
		Swatches:   make([]legendSwatch, len(ch.Legend.Swatches)),
	}
	for i, t := range ch.Legend.Thresholds {
		resp.Thresholds[i] = types.RoundTemp(t)
	}
	for i, s := range ch.Legend.Swatches {
		resp.Swatches[i] = legendSwatch{Lo: types.RoundTemp(s.Lo), Hi: types.RoundTemp(s.Hi), Fill: s.Fill}
	}
	return resp
}
