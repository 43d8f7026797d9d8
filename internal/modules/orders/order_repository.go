package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"routeboard/internal/models"
)

// RepositoryInterface is the read-only order directory. Route planning only
// needs identity, location and status snapshots; the order domain proper is
// owned elsewhere and nothing here writes to it.
type RepositoryInterface interface {
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	ListByIDs(ctx context.Context, orderIDs []string) (map[string]models.Order, error)
	List(ctx context.Context, page, limit int) ([]*models.Order, int, error)
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new order repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const orderColumns = `id, address, contact, latitude, longitude, status, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.Address,
		&o.Contact,
		&o.Location.Latitude,
		&o.Location.Longitude,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &o, nil
}

// FindByID retrieves a single order snapshot.
func (r *Repository) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return order, nil
}

// ListByIDs retrieves snapshots for the given order ids, keyed by id.
// Missing ids are simply absent from the result.
func (r *Repository) ListByIDs(ctx context.Context, orderIDs []string) (map[string]models.Order, error) {
	out := make(map[string]models.Order, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ANY($1)`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByIDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListByIDs scan: %w", err)
		}
		out[order.ID] = *order
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListByIDs rows: %w", err)
	}
	return out, nil
}

// List retrieves order snapshots with pagination.
func (r *Repository) List(ctx context.Context, page, limit int) ([]*models.Order, int, error) {
	offset := (page - 1) * limit
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.List: %w", err)
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.List scan: %w", err)
		}
		out = append(out, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.List rows: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.List count: %w", err)
	}
	return out, total, nil
}
