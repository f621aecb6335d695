package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"thermogrid/internal/modules/heatmap/types"
)

var ErrNotFound = errors.New("dataset not found")

// DatasetRepository caches loaded datasets keyed by their source.
type DatasetRepository interface {
	SaveDataset(ctx context.Context, source string, ds types.Dataset, fetchedAt time.Time) error
	LoadDataset(ctx context.Context, source string) (types.Dataset, time.Time, error)
	CountObservations(ctx context.Context, source string) (int, error)
}

type datasetRepositoryImpl struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) DatasetRepository {
	return &datasetRepositoryImpl{db: db}
}

type datasetRow struct {
	ID              int64   `db:"id"`
	BaseTemperature float64 `db:"base_temperature"`
	FetchedAt       string  `db:"fetched_at"`
}

// SaveDataset replaces any stored copy of source with ds.
func (r *datasetRepositoryImpl) SaveDataset(ctx context.Context, source string, ds types.Dataset, fetchedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Observations are deleted explicitly; the cascade only fires with
	// foreign_keys=on, which plain DSNs do not set.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM observations WHERE dataset_id IN (SELECT id FROM datasets WHERE source = ?)`, source); err != nil {
		return fmt.Errorf("delete previous observations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE source = ?`, source); err != nil {
		return fmt.Errorf("delete previous dataset: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO datasets (source, base_temperature, fetched_at) VALUES (?, ?, ?)`,
		source, ds.BaseTemperature, fetchedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("dataset id: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO observations (dataset_id, seq, year, month, variance) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare observation insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for seq, o := range ds.Observations {
		if _, err := stmt.ExecContext(ctx, id, seq, o.Year, o.Month, o.Variance); err != nil {
			return fmt.Errorf("insert observation %d (%d-%02d): %w", seq, o.Year, o.Month, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadDataset returns the stored dataset for source, observations in
// fetch order, and when it was fetched.
func (r *datasetRepositoryImpl) LoadDataset(ctx context.Context, source string) (types.Dataset, time.Time, error) {
	var row datasetRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, base_temperature, fetched_at FROM datasets WHERE source = ?`, source)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Dataset{}, time.Time{}, ErrNotFound
	}
	if err != nil {
		return types.Dataset{}, time.Time{}, fmt.Errorf("select dataset: %w", err)
	}

	fetchedAt, err := time.Parse(time.RFC3339Nano, row.FetchedAt)
	if err != nil {
		return types.Dataset{}, time.Time{}, fmt.Errorf("parse fetched_at %q: %w", row.FetchedAt, err)
	}

	var obs []types.Observation
	if err := r.db.SelectContext(ctx, &obs,
		`SELECT year, month, variance FROM observations WHERE dataset_id = ? ORDER BY seq`, row.ID); err != nil {
		return types.Dataset{}, time.Time{}, fmt.Errorf("select observations: %w", err)
	}
	if len(obs) == 0 {
		return types.Dataset{}, time.Time{}, ErrNotFound
	}

	return types.Dataset{BaseTemperature: row.BaseTemperature, Observations: obs}, fetchedAt, nil
}

func (r *datasetRepositoryImpl) CountObservations(ctx context.Context, source string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*)
		FROM observations o
		JOIN datasets d ON d.id = o.dataset_id
		WHERE d.source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return n, nil
}
