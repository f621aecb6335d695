package chart

import (
	"fmt"
	"image/color"

	"github.com/aclements/go-gg/palette"
	"github.com/aclements/go-moremath/scale"
)

var (
	coldColor    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	neutralColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	hotColor     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// Diverging maps temperatures onto a cold → neutral → hot gradient
// anchored at Min, Mid and Max.
type Diverging struct {
	Min, Mid, Max float64

	gradient palette.RGBGradient
}

func NewDiverging(min, mid, max float64) Diverging {
	return Diverging{
		Min: min,
		Mid: mid,
		Max: max,
		// RGBGradient returns Colors[0] for its entire first segment,
		// so the cold colour is repeated and positions start at 1/3.
		gradient: palette.RGBGradient{
			Colors: []color.RGBA{coldColor, coldColor, neutralColor, hotColor},
		},
	}
}

// Position returns where t falls on the gradient, in [0, 1]. Mid is
// always 0.5; each half is scaled independently so that Min and Max land
// on the ends even when Mid is off-centre.
func (d Diverging) Position(t float64) float64 {
	if t <= d.Mid {
		if d.Mid <= d.Min {
			return 0.5
		}
		lower := scale.Linear{Min: d.Min, Max: d.Mid, Clamp: true}
		return 0.5 * lower.Map(t)
	}
	if d.Max <= d.Mid {
		return 0.5
	}
	upper := scale.Linear{Min: d.Mid, Max: d.Max, Clamp: true}
	return 0.5 + 0.5*upper.Map(t)
}

func (d Diverging) Color(t float64) color.RGBA {
	c := d.gradient.Map((1 + 2*d.Position(t)) / 3)
	return color.RGBAModel.Convert(c).(color.RGBA)
}

// Fill returns the colour of t as a #rrggbb string.
func (d Diverging) Fill(t float64) string {
	return Hex(d.Color(t))
}

func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
