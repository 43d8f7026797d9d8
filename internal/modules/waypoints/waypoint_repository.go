package waypoints

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"routeboard/internal/models"
)

// RepositoryInterface is the durable side of the waypoint store. The store
// runs purely in memory; this repository seeds it at startup and records
// every settled mutation so a restart replays the same state.
type RepositoryInterface interface {
	ListAll(ctx context.Context) ([]models.Waypoint, error)
	ReplaceRoute(ctx context.Context, routeID string, waypoints []models.Waypoint) error
	UpdateWaypoint(ctx context.Context, wp models.Waypoint) error
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new waypoint repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// InitSchema creates the waypoint table when it does not exist yet, for
// local runs without a migration step.
func (r *Repository) InitSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS route_waypoints (
			route_id            TEXT NOT NULL,
			order_id            TEXT NOT NULL,
			sequence            INT  NOT NULL,
			status              TEXT NOT NULL DEFAULT 'pending',
			delivered_at        TIMESTAMPTZ,
			notes               TEXT NOT NULL DEFAULT '',
			drive_time_estimate INT,
			drive_time_actual   INT,
			PRIMARY KEY (route_id, order_id)
		)`)
	if err != nil {
		return fmt.Errorf("repository.InitSchema: %w", err)
	}
	return nil
}

// ListAll returns every persisted waypoint, for seeding the in-memory store.
func (r *Repository) ListAll(ctx context.Context) ([]models.Waypoint, error) {
	query := `
		SELECT route_id, order_id, sequence, status, delivered_at, notes, drive_time_estimate, drive_time_actual
		FROM route_waypoints
		ORDER BY route_id, sequence`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.ListAll: %w", err)
	}
	defer rows.Close()

	var out []models.Waypoint
	for rows.Next() {
		var wp models.Waypoint
		if err := rows.Scan(
			&wp.RouteID,
			&wp.OrderID,
			&wp.Sequence,
			&wp.Status,
			&wp.DeliveredAt,
			&wp.Notes,
			&wp.DriveTimeEstimate,
			&wp.DriveTimeActual,
		); err != nil {
			return nil, fmt.Errorf("repository.ListAll scan: %w", err)
		}
		out = append(out, wp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListAll rows: %w", err)
	}
	return out, nil
}

// ReplaceRoute rewrites one route's rows inside a transaction. Writing the
// whole route keeps persisted sequences identical to the store's contiguous
// numbering without diffing individual rows.
func (r *Repository) ReplaceRoute(ctx context.Context, routeID string, waypoints []models.Waypoint) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("repository.ReplaceRoute begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM route_waypoints WHERE route_id = $1`, routeID); err != nil {
		return fmt.Errorf("repository.ReplaceRoute delete: %w", err)
	}

	for _, wp := range waypoints {
		_, err := tx.Exec(ctx, `
			INSERT INTO route_waypoints (route_id, order_id, sequence, status, delivered_at, notes, drive_time_estimate, drive_time_actual)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			wp.RouteID, wp.OrderID, wp.Sequence, wp.Status, wp.DeliveredAt, wp.Notes, wp.DriveTimeEstimate, wp.DriveTimeActual,
		)
		if err != nil {
			return fmt.Errorf("repository.ReplaceRoute insert %s/%s: %w", wp.RouteID, wp.OrderID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository.ReplaceRoute commit: %w", err)
	}
	return nil
}

// UpdateWaypoint persists a single waypoint's mutable fields.
func (r *Repository) UpdateWaypoint(ctx context.Context, wp models.Waypoint) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE route_waypoints
		SET status = $1, delivered_at = $2, notes = $3, drive_time_estimate = $4, drive_time_actual = $5
		WHERE route_id = $6 AND order_id = $7`,
		wp.Status, wp.DeliveredAt, wp.Notes, wp.DriveTimeEstimate, wp.DriveTimeActual, wp.RouteID, wp.OrderID,
	)
	if err != nil {
		return fmt.Errorf("repository.UpdateWaypoint: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
