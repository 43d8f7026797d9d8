package updates

import (
	"context"
	"sync"

	"routeboard/internal/models"
)

// StoreInterface is the persistence surface of the ledger: two named
// collections, each read and written as a whole. There is no partial-record
// API at this boundary; the ledger is the only writer and serializes access
// itself.
type StoreInterface interface {
	LoadAssignments(ctx context.Context) ([]models.AssignmentUpdate, error)
	SaveAssignments(ctx context.Context, entries []models.AssignmentUpdate) error
	LoadOrderFields(ctx context.Context) ([]models.OrderFieldUpdate, error)
	SaveOrderFields(ctx context.Context, entries []models.OrderFieldUpdate) error
}

// MemoryStore keeps the ledger collections in process memory. Used in tests
// and as a fallback when no Redis address is configured.
type MemoryStore struct {
	mu          sync.Mutex
	assignments []models.AssignmentUpdate
	orderFields []models.OrderFieldUpdate
}

// NewMemoryStore creates an empty in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadAssignments(ctx context.Context) ([]models.AssignmentUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AssignmentUpdate(nil), s.assignments...), nil
}

func (s *MemoryStore) SaveAssignments(ctx context.Context, entries []models.AssignmentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = append([]models.AssignmentUpdate(nil), entries...)
	return nil
}

func (s *MemoryStore) LoadOrderFields(ctx context.Context) ([]models.OrderFieldUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OrderFieldUpdate(nil), s.orderFields...), nil
}

func (s *MemoryStore) SaveOrderFields(ctx context.Context, entries []models.OrderFieldUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderFields = append([]models.OrderFieldUpdate(nil), entries...)
	return nil
}
