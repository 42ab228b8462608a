package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sant0-9/chartwise/internal/dashboard"
)

// SaveDashboard inserts or replaces a dashboard. An empty ID is assigned and
// UpdatedAt is refreshed.
func (s *Store) SaveDashboard(ctx context.Context, d *dashboard.Dashboard) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := s.now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	components := d.Components
	if components == nil {
		components = []dashboard.Component{}
	}
	comps, err := json.Marshal(components)
	if err != nil {
		return fmt.Errorf("failed to encode components: %w", err)
	}
	layout, err := json.Marshal(d.Layout)
	if err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dashboards (id, dataset_id, title, components, layout, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			components = excluded.components,
			layout = excluded.layout,
			updated_at = excluded.updated_at`,
		d.ID, d.DatasetID, d.Title, string(comps), string(layout), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save dashboard: %w", err)
	}
	return nil
}

func (s *Store) GetDashboard(ctx context.Context, id string) (*dashboard.Dashboard, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, dataset_id, title, components, layout, created_at, updated_at
		FROM dashboards WHERE id = ?`, id)

	d, err := scanDashboard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("dashboard", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}
	return d, nil
}

// ListDashboards returns dashboards, most recently updated first. An empty
// datasetID lists all of them.
func (s *Store) ListDashboards(ctx context.Context, datasetID string) ([]*dashboard.Dashboard, error) {
	query := `SELECT id, dataset_id, title, components, layout, created_at, updated_at FROM dashboards`
	var args []any
	if datasetID != "" {
		query += ` WHERE dataset_id = ?`
		args = append(args, datasetID)
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	defer rows.Close()

	var out []*dashboard.Dashboard
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dashboard: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDashboard(sc scanner) (*dashboard.Dashboard, error) {
	var d dashboard.Dashboard
	var comps, layout string
	if err := sc.Scan(&d.ID, &d.DatasetID, &d.Title, &comps, &layout, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(comps), &d.Components); err != nil {
		return nil, fmt.Errorf("failed to decode components: %w", err)
	}
	if err := json.Unmarshal([]byte(layout), &d.Layout); err != nil {
		return nil, fmt.Errorf("failed to decode layout: %w", err)
	}
	return &d, nil
}
