// Package chart lays out the temperature heatmap and writes it as SVG.
//
// Build is pure: it turns a dataset into positioned cells, axis ticks
// and legend swatches. WriteSVG serialises the result.
package chart

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/aclements/go-moremath/scale"
	"github.com/aclements/go-moremath/vec"

	"thermogrid/internal/modules/heatmap/types"
)

const (
	DefaultWidth          = 1400
	DefaultHeight         = 600
	DefaultPadding        = 60
	DefaultLegendSwatches = 9
	DefaultTooltipPath    = "/partials/tooltip"

	Title = "Monthly Global Land-Surface Temperature"

	legendSwatchWidth  = 40
	legendSwatchHeight = 15
)

// Layout holds the chart dimensions in pixels.
type Layout struct {
	Width          int
	Height         int
	Padding        int
	LegendSwatches int

	// TooltipPath is the route cells load their tooltip from. Empty
	// disables the hover attributes (static renders).
	TooltipPath string
}

func DefaultLayout() Layout {
	return Layout{
		Width:          DefaultWidth,
		Height:         DefaultHeight,
		Padding:        DefaultPadding,
		LegendSwatches: DefaultLegendSwatches,
		TooltipPath:    DefaultTooltipPath,
	}
}

func (l Layout) validate() error {
	if l.Padding < 0 {
		return fmt.Errorf("padding must be >= 0, got %d", l.Padding)
	}
	if l.Width-3*l.Padding <= 0 {
		return fmt.Errorf("width %d too small for padding %d", l.Width, l.Padding)
	}
	if l.Height-4*l.Padding <= 0 {
		return fmt.Errorf("height %d too small for padding %d", l.Height, l.Padding)
	}
	if l.LegendSwatches < 1 {
		return fmt.Errorf("legend swatches must be >= 1, got %d", l.LegendSwatches)
	}
	return nil
}

// Plot area. The left margin is doubled to make room for month names
// and the bottom one for the legend strip.
func (l Layout) plotLeft() int   { return 2 * l.Padding }
func (l Layout) plotRight() int  { return l.Width - l.Padding }
func (l Layout) plotTop() int    { return 2 * l.Padding }
func (l Layout) plotBottom() int { return l.Height - 2*l.Padding }

type Cell struct {
	Observation types.Observation
	Temperature float64
	Fill        string

	X, Y, Width, Height int
}

type XTick struct {
	Year  int
	X     int
	Label string
}

type YTick struct {
	Month int
	Y     int
	Label string
}

type Swatch struct {
	Lo, Hi float64
	Fill   string

	X, Y, Width, Height int
}

type Legend struct {
	Thresholds []float64
	Swatches   []Swatch
}

type Chart struct {
	Layout      Layout
	Title       string
	Description string

	BaseTemperature float64
	MinTemp         float64
	MaxTemp         float64
	FirstYear       int
	LastYear        int

	Colors Diverging
	Cells  []Cell
	XTicks []XTick
	YTicks []YTick
	Legend Legend
}

// Build computes the heatmap for ds. Cells are returned in observation
// order, one per observation.
func Build(ds types.Dataset, layout Layout) (*Chart, error) {
	if len(ds.Observations) == 0 {
		return nil, types.ErrEmptyDataset
	}
	if err := layout.validate(); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	minTemp, maxTemp := ds.MinTemp(), ds.MaxTemp()
	if math.IsNaN(minTemp) || math.IsNaN(maxTemp) {
		return nil, errors.New("temperature bounds are undefined")
	}
	first, last := ds.YearExtent()

	c := &Chart{
		Layout:          layout,
		Title:           Title,
		Description:     fmt.Sprintf("%d - %d: base temperature %s°C", first, last, FormatTemp(ds.BaseTemperature)),
		BaseTemperature: ds.BaseTemperature,
		MinTemp:         minTemp,
		MaxTemp:         maxTemp,
		FirstYear:       first,
		LastYear:        last,
		Colors:          NewDiverging(minTemp, ds.BaseTemperature, maxTemp),
	}

	years := scale.Linear{Min: float64(first), Max: float64(last + 1)}
	months := scale.Linear{Min: 0, Max: 12}
	xAt := func(year int) int {
		return layout.plotLeft() + int(math.Round(years.Map(float64(year))*float64(layout.plotRight()-layout.plotLeft())))
	}
	yAt := func(month int) int {
		return layout.plotTop() + int(math.Round(months.Map(float64(month))*float64(layout.plotBottom()-layout.plotTop())))
	}

	c.Cells = make([]Cell, 0, len(ds.Observations))
	for _, o := range ds.Observations {
		t := ds.Temperature(o)
		x0, x1 := xAt(o.Year), xAt(o.Year+1)
		y0, y1 := yAt(o.Month), yAt(o.Month+1)
		c.Cells = append(c.Cells, Cell{
			Observation: o,
			Temperature: t,
			Fill:        c.Colors.Fill(t),
			X:           x0,
			Y:           y0,
			Width:       x1 - x0,
			Height:      y1 - y0,
		})
	}

	for _, year := range DecadeTicks(first, last) {
		c.XTicks = append(c.XTicks, XTick{Year: year, X: xAt(year), Label: strconv.Itoa(year)})
	}
	for m := 0; m < 12; m++ {
		c.YTicks = append(c.YTicks, YTick{Month: m, Y: (yAt(m) + yAt(m+1)) / 2, Label: types.MonthName(m)})
	}

	c.Legend = buildLegend(c.Colors, minTemp, maxTemp, layout)
	return c, nil
}

// DecadeTicks returns the multiples of ten in [first, last].
func DecadeTicks(first, last int) []int {
	if last < first {
		return nil
	}
	if first == last {
		if first%10 == 0 {
			return []int{first}
		}
		return nil
	}
	// With an explicit Base, level 2k spaces ticks Base^k apart, so
	// level 2 is one tick per decade.
	s := scale.Linear{Min: float64(first), Max: float64(last), Base: 10}
	major, _ := s.Ticks(scale.TickOptions{
		Max:      (last-first)/10 + 2,
		MinLevel: 2,
		MaxLevel: 2,
	})
	out := make([]int, 0, len(major))
	for _, t := range major {
		year := int(math.Round(t))
		if year%10 != 0 || year < first || year > last {
			continue
		}
		out = append(out, year)
	}
	return out
}

func buildLegend(colors Diverging, minTemp, maxTemp float64, layout Layout) Legend {
	n := layout.LegendSwatches
	thresholds := vec.Linspace(minTemp, maxTemp, n+1)
	y := layout.Height - layout.Padding
	swatches := make([]Swatch, n)
	for i := range swatches {
		lo, hi := thresholds[i], thresholds[i+1]
		swatches[i] = Swatch{
			Lo:     lo,
			Hi:     hi,
			Fill:   colors.Fill((lo + hi) / 2),
			X:      layout.plotLeft() + i*legendSwatchWidth,
			Y:      y,
			Width:  legendSwatchWidth,
			Height: legendSwatchHeight,
		}
	}
	return Legend{Thresholds: thresholds, Swatches: swatches}
}

// TooltipURL returns the fragment URL for the cell at year and 0-based month.
func TooltipURL(path string, year, month int) string {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))
	return path + "?" + q.Encode()
}

// FormatTemp formats a temperature without trailing floating point noise.
func FormatTemp(t float64) string {
	return strconv.FormatFloat(types.RoundTemp(t), 'f', -1, 64)
}
