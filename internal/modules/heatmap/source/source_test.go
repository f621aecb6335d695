package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"thermogrid/internal/config"
)

const samplePath = "testdata/sample.json"

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		location string
		wantHTTP bool
		wantName string
	}{
		{name: "https url", location: config.DefaultDatasetURL, wantHTTP: true, wantName: config.DefaultDatasetURL},
		{name: "http url", location: "http://localhost:9000/x.json", wantHTTP: true, wantName: "http://localhost:9000/x.json"},
		{name: "plain path", location: "data/x.json", wantName: "file://data/x.json"},
		{name: "file url", location: "file:///tmp/x.json", wantName: "file:///tmp/x.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := New(tt.location, time.Second)
			_, isHTTP := src.(*HTTPSource)
			if isHTTP != tt.wantHTTP {
				t.Errorf("New(%q) HTTP = %v; want %v", tt.location, isHTTP, tt.wantHTTP)
			}
			if got := src.Name(); got != tt.wantName {
				t.Errorf("Name() = %q; want %q", got, tt.wantName)
			}
		})
	}
}

func TestHTTPSource_Fetch(t *testing.T) {
	body, err := os.ReadFile(samplePath)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	t.Run("decodes the document", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("method = %s; want GET", r.Method)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
		}))
		defer srv.Close()

		raw, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if raw.BaseTemperature != 8.66 {
			t.Errorf("BaseTemperature = %v; want 8.66", raw.BaseTemperature)
		}
		if len(raw.MonthlyVariance) != 26 {
			t.Fatalf("len(MonthlyVariance) = %d; want 26", len(raw.MonthlyVariance))
		}
		first := raw.MonthlyVariance[0]
		if first.Year != 1753 || first.Month != 1 || first.Variance != -1.366 {
			t.Errorf("first = %+v; want {1753 1 -1.366}", first)
		}
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background())
		if err == nil {
			t.Fatal("Fetch() = nil; want error")
		}
		if !strings.Contains(err.Error(), "404") {
			t.Errorf("err = %q; want status code in message", err)
		}
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"baseTemperature": "warm"`))
		}))
		defer srv.Close()

		if _, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background()); err == nil {
			t.Fatal("Fetch() = nil; want decode error")
		}
	})

	t.Run("timeout is an error", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		if _, err := NewHTTPSource(srv.URL, 50*time.Millisecond).Fetch(context.Background()); err == nil {
			t.Fatal("Fetch() = nil; want timeout error")
		}
	})

	t.Run("cancelled context is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(body)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := NewHTTPSource(srv.URL, time.Second).Fetch(ctx); err == nil {
			t.Fatal("Fetch() = nil; want context error")
		}
	})
}

func TestFileSource_Fetch(t *testing.T) {
	t.Run("reads the fixture", func(t *testing.T) {
		raw, err := (&FileSource{Path: samplePath}).Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if len(raw.MonthlyVariance) != 26 {
			t.Errorf("len(MonthlyVariance) = %d; want 26", len(raw.MonthlyVariance))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope.json")
		if _, err := (&FileSource{Path: path}).Fetch(context.Background()); err == nil {
			t.Fatal("Fetch() = nil; want error")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := (&FileSource{Path: path}).Fetch(context.Background()); err == nil {
			t.Fatal("Fetch() = nil; want error")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := (&FileSource{Path: samplePath}).Fetch(ctx); err == nil {
			t.Fatal("Fetch() = nil; want context error")
		}
	})
}
