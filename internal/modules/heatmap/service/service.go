// Package service loads the temperature dataset exactly once and hands
// the result, and the chart computed from it, to the HTTP layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"thermogrid/internal/modules/heatmap/chart"
	"thermogrid/internal/modules/heatmap/repository"
	"thermogrid/internal/modules/heatmap/source"
	"thermogrid/internal/modules/heatmap/types"
)

var ErrNotLoaded = errors.New("dataset not loaded yet")

type Status string

const (
	StatusPending Status = "pending"
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
)

// Announcer publishes the summary of a freshly loaded dataset.
type Announcer interface {
	PublishSummary(summary types.Summary) error
}

type Options struct {
	Source source.Source
	// Repository and Announcer are optional.
	Repository repository.DatasetRepository
	Announcer  Announcer
	// Cache reads the dataset from Repository when present instead of fetching.
	Cache  bool
	Layout chart.Layout
	Now    func() time.Time
}

type HeatmapService interface {
	Load(ctx context.Context) error
	Status() Status
	Dataset() (types.Dataset, error)
	Summary() (types.Summary, error)
	Chart() (*chart.Chart, error)
}

type heatmapServiceImpl struct {
	opts Options

	once sync.Once

	mu      sync.RWMutex
	status  Status
	err     error
	dataset types.Dataset
	summary types.Summary
	chart   *chart.Chart
}

func NewService(opts Options) HeatmapService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &heatmapServiceImpl{opts: opts, status: StatusPending}
}

// Load runs the load pass on its first call; later calls return the
// first outcome. A failed load is not retried.
func (s *heatmapServiceImpl) Load(ctx context.Context) error {
	s.once.Do(func() {
		err := s.load(ctx)
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.status = StatusFailed
			s.err = err
			return
		}
		s.status = StatusLoaded
	})
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *heatmapServiceImpl) load(ctx context.Context) error {
	if s.opts.Source == nil {
		return errors.New("no dataset source configured")
	}
	name := s.opts.Source.Name()
	start := s.opts.Now()

	ds, fetchedAt, cached, err := s.obtain(ctx, name)
	if err != nil {
		return err
	}

	c, err := chart.Build(ds, s.opts.Layout)
	if err != nil {
		return fmt.Errorf("build chart: %w", err)
	}
	summary := ds.Summarize(name, fetchedAt)

	s.mu.Lock()
	s.dataset = ds
	s.summary = summary
	s.chart = c
	s.mu.Unlock()

	slog.Info("dataset loaded",
		"source", name,
		"cached", cached,
		"observations", summary.Observations,
		"years", fmt.Sprintf("%d-%d", summary.MinYear, summary.MaxYear),
		"duration_ms", s.opts.Now().Sub(start).Milliseconds(),
	)

	if s.opts.Announcer != nil {
		if err := s.opts.Announcer.PublishSummary(summary); err != nil {
			slog.Warn("dataset announcement failed", "source", name, "error", err)
		}
	}
	return nil
}

// obtain returns the dataset from the cache when allowed, otherwise from
// the source, persisting fresh copies.
func (s *heatmapServiceImpl) obtain(ctx context.Context, name string) (types.Dataset, time.Time, bool, error) {
	repo := s.opts.Repository
	if repo != nil && s.opts.Cache {
		ds, fetchedAt, err := repo.LoadDataset(ctx, name)
		switch {
		case err == nil:
			return ds, fetchedAt, true, nil
		case errors.Is(err, repository.ErrNotFound):
			slog.Debug("dataset not cached", "source", name)
		default:
			slog.Warn("dataset cache read failed, fetching", "source", name, "error", err)
		}
	}

	raw, err := s.opts.Source.Fetch(ctx)
	if err != nil {
		return types.Dataset{}, time.Time{}, false, fmt.Errorf("fetch dataset: %w", err)
	}
	ds, err := types.Normalize(raw)
	if err != nil {
		return types.Dataset{}, time.Time{}, false, fmt.Errorf("normalize dataset: %w", err)
	}
	fetchedAt := s.opts.Now().UTC()

	if repo != nil {
		if err := repo.SaveDataset(ctx, name, ds, fetchedAt); err != nil {
			slog.Warn("dataset cache write failed", "source", name, "error", err)
		}
	}
	return ds, fetchedAt, false, nil
}

func (s *heatmapServiceImpl) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// ready returns nil once loaded, the load error after a failure and
// ErrNotLoaded before. Callers hold s.mu.
func (s *heatmapServiceImpl) ready() error {
	switch s.status {
	case StatusLoaded:
		return nil
	case StatusFailed:
		return s.err
	default:
		return ErrNotLoaded
	}
}

func (s *heatmapServiceImpl) Dataset() (types.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return types.Dataset{}, err
	}
	return s.dataset, nil
}

func (s *heatmapServiceImpl) Summary() (types.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return types.Summary{}, err
	}
	return s.summary, nil
}

func (s *heatmapServiceImpl) Chart() (*chart.Chart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.chart, nil
}
