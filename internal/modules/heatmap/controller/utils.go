package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

const (
	defaultObservationsLimit = 100
	maxObservationsLimit     = 5000
)

type observationsQuery struct {
	Year  *int
	Month *int
	Limit int
}

func parseObservationsQuery(r *http.Request) (observationsQuery, error) {
	q := r.URL.Query()
	out := observationsQuery{Limit: defaultObservationsLimit}

	if s := q.Get("year"); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil {
			return observationsQuery{}, errors.New("invalid 'year' (expected integer)")
		}
		out.Year = &year
	}
	if s := q.Get("month"); s != "" {
		month, err := parseMonth(s)
		if err != nil {
			return observationsQuery{}, err
		}
		out.Month = &month
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return observationsQuery{}, errors.New("invalid 'limit' (expected integer)")
		}
		if n <= 0 {
			return observationsQuery{}, errors.New("'limit' must be > 0")
		}
		if n > maxObservationsLimit {
			return observationsQuery{}, fmt.Errorf("'limit' must be <= %d", maxObservationsLimit)
		}
		out.Limit = n
	}
	return out, nil
}

// parseTooltipQuery reads year and month. present is false when both are
// absent, which asks for the hidden tooltip.
func parseTooltipQuery(r *http.Request) (year, month int, present bool, err error) {
	q := r.URL.Query()
	ys, ms := q.Get("year"), q.Get("month")
	if ys == "" && ms == "" {
		return 0, 0, false, nil
	}
	if ys == "" || ms == "" {
		return 0, 0, true, errors.New("'year' and 'month' must be given together")
	}
	year, err = strconv.Atoi(ys)
	if err != nil {
		return 0, 0, true, errors.New("invalid 'year' (expected integer)")
	}
	month, err = parseMonth(ms)
	if err != nil {
		return 0, 0, true, err
	}
	return year, month, true, nil
}

func parseMonth(s string) (int, error) {
	month, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'month' (expected integer 0-11)")
	}
	if month < 0 || month > 11 {
		return 0, errors.New("'month' must be between 0 and 11")
	}
	return month, nil
}
