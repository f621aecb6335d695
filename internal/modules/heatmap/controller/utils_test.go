package controller

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func Test_parseObservationsQuery(t *testing.T) {
	intp := func(v int) *int { return &v }

	tests := []struct {
		name    string
		query   string
		want    observationsQuery
		wantErr string
	}{
		{name: "defaults", query: "", want: observationsQuery{Limit: defaultObservationsLimit}},
		{name: "year", query: "?year=1753", want: observationsQuery{Year: intp(1753), Limit: defaultObservationsLimit}},
		{name: "negative year is allowed", query: "?year=-5", want: observationsQuery{Year: intp(-5), Limit: defaultObservationsLimit}},
		{name: "month zero", query: "?month=0", want: observationsQuery{Month: intp(0), Limit: defaultObservationsLimit}},
		{name: "all", query: "?year=1800&month=11&limit=12", want: observationsQuery{Year: intp(1800), Month: intp(11), Limit: 12}},
		{name: "max limit", query: "?limit=5000", want: observationsQuery{Limit: maxObservationsLimit}},
		{name: "bad year", query: "?year=x", wantErr: "invalid 'year'"},
		{name: "bad month", query: "?month=jan", wantErr: "invalid 'month'"},
		{name: "month 12", query: "?month=12", wantErr: "between 0 and 11"},
		{name: "negative month", query: "?month=-1", wantErr: "between 0 and 11"},
		{name: "bad limit", query: "?limit=ten", wantErr: "invalid 'limit'"},
		{name: "zero limit", query: "?limit=0", wantErr: "must be > 0"},
		{name: "limit over max", query: "?limit=5001", wantErr: "must be <= 5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseObservationsQuery(httptest.NewRequest("GET", "/api/v1/observations"+tt.query, nil))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v; want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Limit != tt.want.Limit {
				t.Errorf("Limit = %d; want %d", got.Limit, tt.want.Limit)
			}
			if !equalIntPtr(got.Year, tt.want.Year) {
				t.Errorf("Year = %v; want %v", got.Year, tt.want.Year)
			}
			if !equalIntPtr(got.Month, tt.want.Month) {
				t.Errorf("Month = %v; want %v", got.Month, tt.want.Month)
			}
		})
	}
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func Test_parseTooltipQuery(t *testing.T) {
	tests := []struct {
		query       string
		wantYear    int
		wantMonth   int
		wantPresent bool
		wantErr     bool
	}{
		{query: "", wantPresent: false},
		{query: "?year=1753&month=0", wantYear: 1753, wantMonth: 0, wantPresent: true},
		{query: "?month=11&year=2015", wantYear: 2015, wantMonth: 11, wantPresent: true},
		{query: "?year=1753", wantPresent: true, wantErr: true},
		{query: "?month=3", wantPresent: true, wantErr: true},
		{query: "?year=abc&month=3", wantPresent: true, wantErr: true},
		{query: "?year=1753&month=12", wantPresent: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			year, month, present, err := parseTooltipQuery(httptest.NewRequest("GET", "/partials/tooltip"+tt.query, nil))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v; wantErr %v", err, tt.wantErr)
			}
			if present != tt.wantPresent {
				t.Errorf("present = %v; want %v", present, tt.wantPresent)
			}
			if err == nil && (year != tt.wantYear || month != tt.wantMonth) {
				t.Errorf("got (%d, %d); want (%d, %d)", year, month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}
