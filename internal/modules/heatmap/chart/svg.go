package chart

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strconv"

	svg "github.com/ajstarks/svgo"
)

// errWriter remembers the first write error so the svgo calls, which
// do not report errors, can be checked once at the end.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	if err != nil {
		ew.err = err
	}
	return n, err
}

func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}

// WriteSVG writes the chart as a standalone SVG document.
func (c *Chart) WriteSVG(w io.Writer) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	l := c.Layout

	canvas.Start(l.Width, l.Height, attr("class", "heatmap"), attr("role", "img"))

	canvas.Text(l.Width/2, l.Padding/2+10, c.Title, attr("id", "title"), attr("text-anchor", "middle"))
	canvas.Text(l.Width/2, l.Padding/2+40, c.Description, attr("id", "description"), attr("text-anchor", "middle"))

	c.writeXAxis(canvas)
	c.writeYAxis(canvas)
	c.writeCells(canvas)
	c.writeLegend(canvas)

	canvas.End()
	return ew.err
}

// InlineSVG returns the SVG without the XML prolog, for embedding in HTML.
func (c *Chart) InlineSVG() (string, error) {
	var buf bytes.Buffer
	if err := c.WriteSVG(&buf); err != nil {
		return "", err
	}
	b := buf.Bytes()
	if i := bytes.Index(b, []byte("<svg")); i > 0 {
		b = b[i:]
	}
	return string(b), nil
}

func (c *Chart) writeXAxis(canvas *svg.SVG) {
	l := c.Layout
	y := l.plotBottom()
	canvas.Group(attr("id", "x-axis"), attr("class", "axis"))
	canvas.Line(l.plotLeft(), y, l.plotRight(), y, attr("stroke", "currentColor"))
	for _, t := range c.XTicks {
		canvas.Group(attr("class", "tick"), attr("data-year", strconv.Itoa(t.Year)))
		canvas.Line(t.X, y, t.X, y+6, attr("stroke", "currentColor"))
		canvas.Text(t.X, y+20, t.Label, attr("text-anchor", "middle"))
		canvas.Gend()
	}
	canvas.Text((l.plotLeft()+l.plotRight())/2, y+40, "Years", attr("class", "axis-label"), attr("text-anchor", "middle"))
	canvas.Gend()
}

func (c *Chart) writeYAxis(canvas *svg.SVG) {
	l := c.Layout
	x := l.plotLeft()
	canvas.Group(attr("id", "y-axis"), attr("class", "axis"))
	canvas.Line(x, l.plotTop(), x, l.plotBottom(), attr("stroke", "currentColor"))
	for _, t := range c.YTicks {
		canvas.Group(attr("class", "tick"), attr("data-month", strconv.Itoa(t.Month)))
		canvas.Line(x-6, t.Y, x, t.Y, attr("stroke", "currentColor"))
		canvas.Text(x-10, t.Y+4, t.Label, attr("text-anchor", "end"))
		canvas.Gend()
	}
	canvas.Gend()
}

func (c *Chart) writeCells(canvas *svg.SVG) {
	tooltip := c.Layout.TooltipPath
	group := []string{attr("id", "cells")}
	if tooltip != "" {
		group = append(group,
			attr("hx-get", tooltip),
			attr("hx-trigger", "mouseleave"),
			attr("hx-target", "#tooltip"),
			attr("hx-swap", "outerHTML"),
			// newest hover wins; a late response must not overwrite it
			attr("hx-sync", "#cells:replace"),
		)
	}
	canvas.Group(group...)
	for _, cell := range c.Cells {
		o := cell.Observation
		attrs := []string{
			attr("class", "cell"),
			attr("fill", cell.Fill),
			attr("data-year", strconv.Itoa(o.Year)),
			attr("data-month", strconv.Itoa(o.Month)),
			attr("data-temp", FormatTemp(cell.Temperature)),
			attr("data-variance", strconv.FormatFloat(o.Variance, 'f', -1, 64)),
		}
		if tooltip != "" {
			attrs = append(attrs,
				attr("hx-get", TooltipURL(tooltip, o.Year, o.Month)),
				attr("hx-trigger", "mouseenter"),
			)
		}
		canvas.Rect(cell.X, cell.Y, cell.Width, cell.Height, attrs...)
	}
	canvas.Gend()
}

func (c *Chart) writeLegend(canvas *svg.SVG) {
	lg := c.Legend
	if len(lg.Swatches) == 0 {
		return
	}
	canvas.Group(attr("id", "legend"))
	for _, s := range lg.Swatches {
		canvas.Rect(s.X, s.Y, s.Width, s.Height,
			attr("class", "legend-swatch"),
			attr("fill", s.Fill),
			attr("data-lo", FormatTemp(s.Lo)),
			attr("data-hi", FormatTemp(s.Hi)),
		)
	}
	first := lg.Swatches[0]
	labelY := first.Y + first.Height + 14
	for i, t := range lg.Thresholds {
		x := first.X + i*first.Width
		canvas.Text(x, labelY, fmt.Sprintf("%.1f", t), attr("class", "legend-label"), attr("text-anchor", "middle"))
	}
	canvas.Gend()
}
