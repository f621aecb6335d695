package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"thermogrid/internal/config"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestServer(t *testing.T, db *sqlx.DB, staticDir string, dataset func() string) *httptest.Server {
	t.Helper()

	srv := NewServer(config.Config{HTTPAddr: ":0"}, NewMux(db, staticDir, dataset))
	ts := httptest.NewServer(srv.Handler)

	t.Cleanup(ts.Close)
	return ts
}

func mustGetJSON[T any](t *testing.T, client *http.Client, url string, out *T) *http.Response {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name    string
		dataset func() string
		want    string
	}{
		{name: "loaded", dataset: func() string { return "loaded" }, want: "loaded"},
		{name: "pending", dataset: func() string { return "pending" }, want: "pending"},
		{name: "no status func", dataset: nil, want: "pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, openTestDB(t), t.TempDir(), tt.dataset)

			var body map[string]string
			resp := mustGetJSON(t, ts.Client(), ts.URL+"/healthz", &body)

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusOK)
			}
			if body["status"] != "ok" {
				t.Errorf("body.status=%q want=%q", body["status"], "ok")
			}
			if body["dataset"] != tt.want {
				t.Errorf("body.dataset=%q want=%q", body["dataset"], tt.want)
			}
		})
	}
}

func TestHealthz_DatabaseDown(t *testing.T) {
	db := openTestDB(t)
	if err := db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}
	ts := newTestServer(t, db, t.TempDir(), nil)

	var body map[string]any
	resp := mustGetJSON(t, ts.Client(), ts.URL+"/healthz", &body)

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusInternalServerError)
	}
	if _, ok := body["message"]; !ok {
		t.Errorf("expected message field, got %v", body)
	}
}

func TestStatic(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "css"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "css", "heatmap.css"), []byte(".cell{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, openTestDB(t), dir, nil)

	resp, err := ts.Client().Get(ts.URL + "/static/css/heatmap.css")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("Content-Type=%q want text/css", ct)
	}

	missing, err := ts.Client().Get(ts.URL + "/static/css/nope.css")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing file status=%d want=%d", missing.StatusCode, http.StatusNotFound)
	}
}

func TestRouting(t *testing.T) {
	ts := newTestServer(t, openTestDB(t), t.TempDir(), nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{method: http.MethodGet, path: "/does-not-exist", want: http.StatusNotFound},
		{method: http.MethodPost, path: "/healthz", want: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		resp, err := ts.Client().Do(req)
		if err != nil {
			t.Fatalf("do: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("%s %s: status=%d want=%d", tt.method, tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := requestLogger(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("busy"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/dataset?x=1", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	want := map[string]any{
		"msg":    "http request",
		"level":  "ERROR",
		"method": "GET",
		"path":   "/api/v1/dataset",
		"status": float64(503),
		"bytes":  float64(4),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v; want %v", k, entry[k], v)
		}
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("duration_ms missing")
	}
}

func TestNewCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		origins    []string
		origin     string
		wantOrigin string
	}{
		{name: "any origin by default", origins: nil, origin: "https://example.test", wantOrigin: "*"},
		{name: "listed origin", origins: []string{"https://a.test"}, origin: "https://a.test", wantOrigin: "https://a.test"},
		{name: "unlisted origin", origins: []string{"https://a.test"}, origin: "https://b.test", wantOrigin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCORS(tt.origins)(ok)

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/dataset", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("preflight Allow-Origin = %q; want %q", got, tt.wantOrigin)
			}

			req = httptest.NewRequest(http.MethodGet, "/api/v1/dataset", nil)
			req.Header.Set("Origin", tt.origin)
			rec = httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("GET status = %d; want %d", rec.Code, http.StatusOK)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("GET Allow-Origin = %q; want %q", got, tt.wantOrigin)
			}
		})
	}
}
