package orders

import (
	"context"
	"fmt"

	"routeboard/internal/models"
)

// ServiceInterface exposes order snapshots to the rest of the system.
type ServiceInterface interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context, page, limit int) ([]*models.Order, int, error)
	LocateOrders(ctx context.Context, orderIDs []string) (map[string]models.GeoPoint, error)
}

// Service implements ServiceInterface.
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new order service.
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// GetOrder retrieves a single order snapshot.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders retrieves order snapshots with pagination.
func (s *Service) ListOrders(ctx context.Context, page, limit int) ([]*models.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, page, limit)
}

// LocateOrders resolves the drop-off location of each order id. Every
// requested id must resolve; segment pairs cannot be built around holes.
func (s *Service) LocateOrders(ctx context.Context, orderIDs []string) (map[string]models.GeoPoint, error) {
	found, err := s.repo.ListByIDs(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("service.LocateOrders: %w", err)
	}

	out := make(map[string]models.GeoPoint, len(found))
	for _, id := range orderIDs {
		order, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("service.LocateOrders: order %q: %w", id, models.ErrNotFound)
		}
		out[id] = order.Location
	}
	return out, nil
}
