package types

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aclements/go-moremath/stats"
)

var (
	ErrEmptyDataset         = errors.New("dataset has no observations")
	ErrMonthOutOfRange      = errors.New("month out of range")
	ErrDuplicateObservation = errors.New("duplicate observation")
)

// RawObservation is one entry of monthlyVariance as served upstream.
// Month is 1-based.
type RawObservation struct {
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Variance float64 `json:"variance"`
}

// RawDataset is the upstream JSON document.
type RawDataset struct {
	BaseTemperature float64          `json:"baseTemperature"`
	MonthlyVariance []RawObservation `json:"monthlyVariance"`
}

// Observation is a single monthly reading. Month is 0-based (0 = January).
type Observation struct {
	Year     int     `json:"year" db:"year"`
	Month    int     `json:"month" db:"month"`
	Variance float64 `json:"variance" db:"variance"`
}

// MonthName returns the English month name for o.Month.
func (o Observation) MonthName() string {
	return MonthName(o.Month)
}

// MonthName returns the English name of a 0-based month index.
func MonthName(month int) string {
	return time.Month(month + 1).String()
}

type Dataset struct {
	BaseTemperature float64
	Observations    []Observation
}

// Normalize converts the upstream document into a Dataset, shifting
// months from 1..12 to 0..11 and preserving order.
func Normalize(raw RawDataset) (Dataset, error) {
	if len(raw.MonthlyVariance) == 0 {
		return Dataset{}, ErrEmptyDataset
	}
	seen := make(map[[2]int]struct{}, len(raw.MonthlyVariance))
	obs := make([]Observation, 0, len(raw.MonthlyVariance))
	for i, r := range raw.MonthlyVariance {
		if r.Month < 1 || r.Month > 12 {
			return Dataset{}, fmt.Errorf("entry %d (year %d): %w: %d", i, r.Year, ErrMonthOutOfRange, r.Month)
		}
		key := [2]int{r.Year, r.Month}
		if _, ok := seen[key]; ok {
			return Dataset{}, fmt.Errorf("entry %d: %w: %d-%02d", i, ErrDuplicateObservation, r.Year, r.Month)
		}
		seen[key] = struct{}{}
		obs = append(obs, Observation{Year: r.Year, Month: r.Month - 1, Variance: r.Variance})
	}
	return Dataset{BaseTemperature: raw.BaseTemperature, Observations: obs}, nil
}

// Temperature returns the absolute temperature of o.
func (d Dataset) Temperature(o Observation) float64 {
	return RoundTemp(d.BaseTemperature + o.Variance)
}

// Temperatures returns the absolute temperature of every observation, in order.
func (d Dataset) Temperatures() []float64 {
	out := make([]float64, len(d.Observations))
	for i, o := range d.Observations {
		out[i] = d.Temperature(o)
	}
	return out
}

// MinTemp returns the lowest absolute temperature, or NaN if d is empty.
func (d Dataset) MinTemp() float64 {
	lo, _ := d.tempBounds()
	return lo
}

// MaxTemp returns the highest absolute temperature, or NaN if d is empty.
func (d Dataset) MaxTemp() float64 {
	_, hi := d.tempBounds()
	return hi
}

func (d Dataset) tempBounds() (float64, float64) {
	if len(d.Observations) == 0 {
		return math.NaN(), math.NaN()
	}
	return stats.Bounds(d.Temperatures())
}

// YearExtent returns the first and last year present in d.
func (d Dataset) YearExtent() (first, last int) {
	for i, o := range d.Observations {
		if i == 0 || o.Year < first {
			first = o.Year
		}
		if i == 0 || o.Year > last {
			last = o.Year
		}
	}
	return first, last
}

// Find returns the observation for year and 0-based month.
func (d Dataset) Find(year, month int) (Observation, bool) {
	for _, o := range d.Observations {
		if o.Year == year && o.Month == month {
			return o, true
		}
	}
	return Observation{}, false
}

// Summarize computes the Summary of d.
func (d Dataset) Summarize(source string, loadedAt time.Time) Summary {
	first, last := d.YearExtent()
	return Summary{
		Source:          source,
		BaseTemperature: d.BaseTemperature,
		MinTemp:         d.MinTemp(),
		MaxTemp:         d.MaxTemp(),
		MinYear:         first,
		MaxYear:         last,
		Observations:    len(d.Observations),
		LoadedAt:        loadedAt.UTC(),
	}
}

// RoundTemp rounds to the millidegree; upstream variances carry three
// decimals, so this only strips floating point noise from base+variance.
func RoundTemp(t float64) float64 {
	return math.Round(t*1000) / 1000
}

// Summary describes a loaded dataset. It is served by the JSON API and
// announced over MQTT.
type Summary struct {
	Source          string    `json:"source"`
	BaseTemperature float64   `json:"baseTemperature"`
	MinTemp         float64   `json:"minTemp"`
	MaxTemp         float64   `json:"maxTemp"`
	MinYear         int       `json:"minYear"`
	MaxYear         int       `json:"maxYear"`
	Observations    int       `json:"observations"`
	LoadedAt        time.Time `json:"loadedAt"`
}

// ObservationView is an observation with its absolute temperature, as
// returned by the observations endpoint.
type ObservationView struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	MonthName   string  `json:"monthName"`
	Variance    float64 `json:"variance"`
	Temperature float64 `json:"temperature"`
}
