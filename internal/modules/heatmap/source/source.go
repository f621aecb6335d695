package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"thermogrid/internal/modules/heatmap/types"
)

// maxBodyBytes bounds the upstream document; the real one is ~200KB.
const maxBodyBytes = 32 << 20

// Source yields the raw temperature document.
type Source interface {
	Fetch(ctx context.Context) (types.RawDataset, error)
	Name() string
}

// New returns an HTTPSource for http(s) locations and a FileSource otherwise.
func New(location string, timeout time.Duration) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, timeout)
	}
	return &FileSource{Path: strings.TrimPrefix(location, "file://")}
}

type HTTPSource struct {
	URL    string
	client *http.Client
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name() string { return s.URL }

// Fetch performs a single GET. There is no retry.
func (s *HTTPSource) Fetch(ctx context.Context) (types.RawDataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return types.RawDataset{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return types.RawDataset{}, fmt.Errorf("get %s: %w", s.URL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("close dataset response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.RawDataset{}, fmt.Errorf("get %s: unexpected status %d", s.URL, resp.StatusCode)
	}

	raw, err := decode(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return types.RawDataset{}, fmt.Errorf("decode %s: %w", s.URL, err)
	}
	slog.Debug("dataset fetched",
		"url", s.URL,
		"observations", len(raw.MonthlyVariance),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return raw, nil
}

type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return "file://" + s.Path }

func (s *FileSource) Fetch(ctx context.Context) (types.RawDataset, error) {
	if err := ctx.Err(); err != nil {
		return types.RawDataset{}, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return types.RawDataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("close dataset file", "path", s.Path, "error", err)
		}
	}()
	raw, err := decode(f)
	if err != nil {
		return types.RawDataset{}, fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return raw, nil
}

func decode(r io.Reader) (types.RawDataset, error) {
	var raw types.RawDataset
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return types.RawDataset{}, err
	}
	return raw, nil
}
