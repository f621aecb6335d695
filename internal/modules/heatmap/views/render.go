package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"

	"thermogrid/internal/modules/heatmap/chart"
	"thermogrid/internal/modules/heatmap/types"
)

var pageTmpl *template.Template

// loadTemplatesFromFS parses the page and partial templates under dir.
// Tests use it to simulate failures.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	pageTmpl = tmpl
	return nil
}

// LoadTemplates loads the embedded templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

var errNotLoaded = errors.New("heatmap templates not loaded: call views.LoadTemplates during startup")

// TooltipData is the view model of the tooltip fragment. The zero value
// renders the hidden placeholder.
type TooltipData struct {
	Visible     bool
	Year        int
	Month       int
	MonthName   string
	Temperature string
	Variance    string
}

// NewTooltip returns the visible tooltip for o.
func NewTooltip(ds types.Dataset, o types.Observation) TooltipData {
	return TooltipData{
		Visible:     true,
		Year:        o.Year,
		Month:       o.Month,
		MonthName:   o.MonthName(),
		Temperature: chart.FormatTemp(ds.Temperature(o)),
		Variance:    FormatVariance(o.Variance),
	}
}

// FormatVariance formats a variance with an explicit sign.
func FormatVariance(v float64) string {
	s := chart.FormatTemp(v)
	if v > 0 {
		return "+" + s
	}
	return s
}

type PageData struct {
	Title           string
	SVG             template.HTML
	Summary         types.Summary
	BaseTemperature string
	MinTemp         string
	MaxTemp         string
	Tooltip         TooltipData
}

// NewPageData assembles the page around an already rendered inline SVG.
func NewPageData(c *chart.Chart, summary types.Summary, inlineSVG string) *PageData {
	return &PageData{
		Title: c.Title,
		// produced by chart.WriteSVG, which escapes every attribute and text node
		SVG:             template.HTML(inlineSVG),
		Summary:         summary,
		BaseTemperature: chart.FormatTemp(summary.BaseTemperature),
		MinTemp:         chart.FormatTemp(summary.MinTemp),
		MaxTemp:         chart.FormatTemp(summary.MaxTemp),
	}
}

func RenderPage(w io.Writer, data *PageData) error {
	if pageTmpl == nil {
		return errNotLoaded
	}
	return pageTmpl.ExecuteTemplate(w, "heatmap.html", data)
}

// RenderTooltipPartial executes only the tooltip partial into w, for
// HTMX swaps on hover.
func RenderTooltipPartial(w io.Writer, data *TooltipData) error {
	if pageTmpl == nil {
		return errNotLoaded
	}
	if data == nil {
		data = &TooltipData{}
	}
	return pageTmpl.ExecuteTemplate(w, "partials/tooltip.html", data)
}
