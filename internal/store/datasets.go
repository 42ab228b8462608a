package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sant0-9/chartwise/internal/dataset"
)

// Dataset is a stored dataset's header. Rows are loaded separately.
type Dataset struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	SourcePath string          `json:"source_path"`
	RowCount   int             `json:"row_count"`
	Catalog    dataset.Catalog `json:"columns"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SaveDataset stores a dataset and its rows in one transaction. An empty ID
// is assigned.
func (s *Store) SaveDataset(ctx context.Context, ds *Dataset, rows []dataset.Row) error {
	if ds.ID == "" {
		ds.ID = uuid.NewString()
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = s.now()
	}
	ds.RowCount = len(rows)

	columns, err := json.Marshal(ds.Catalog)
	if err != nil {
		return fmt.Errorf("failed to encode columns: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO datasets (id, name, source_path, row_count, columns, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		ds.ID, ds.Name, ds.SourcePath, ds.RowCount, string(columns), ds.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dataset: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO dataset_rows (dataset_id, idx, data) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, ds.ID, i, string(data)); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}
	return nil
}

func (s *Store) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, source_path, row_count, columns, created_at FROM datasets WHERE id = ?`, id)

	ds, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("dataset", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return ds, nil
}

// ListDatasets returns all datasets, newest first
func (s *Store) ListDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, source_path, row_count, columns, created_at FROM datasets ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var out []Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		out = append(out, *ds)
	}
	return out, rows.Err()
}

// LoadRows returns up to limit rows of a dataset in insertion order. A limit
// of zero or less loads everything.
func (s *Store) LoadRows(ctx context.Context, datasetID string, limit int) ([]dataset.Row, error) {
	query := `SELECT data FROM dataset_rows WHERE dataset_id = ? ORDER BY idx`
	args := []any{datasetID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load rows: %w", err)
	}
	defer rows.Close()

	var out []dataset.Row
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r := dataset.Row{}
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(sc scanner) (*Dataset, error) {
	var ds Dataset
	var columns string
	if err := sc.Scan(&ds.ID, &ds.Name, &ds.SourcePath, &ds.RowCount, &columns, &ds.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(columns), &ds.Catalog); err != nil {
		return nil, fmt.Errorf("failed to decode columns: %w", err)
	}
	return &ds, nil
}
