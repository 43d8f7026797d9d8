package updates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"routeboard/internal/models"
)

const (
	assignmentsKey = "routeboard:ledger:assignments"
	orderFieldsKey = "routeboard:ledger:order_fields"
)

// RedisStore persists the ledger collections as one JSON blob per
// collection, so each collection is read and written atomically as a whole.
// This is what lets recorded intent survive a process restart while the
// backing network calls are still outstanding.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a ledger store on top of an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) LoadAssignments(ctx context.Context) ([]models.AssignmentUpdate, error) {
	var entries []models.AssignmentUpdate
	if err := s.load(ctx, assignmentsKey, &entries); err != nil {
		return nil, fmt.Errorf("ledger.LoadAssignments: %w", err)
	}
	return entries, nil
}

func (s *RedisStore) SaveAssignments(ctx context.Context, entries []models.AssignmentUpdate) error {
	if err := s.save(ctx, assignmentsKey, entries); err != nil {
		return fmt.Errorf("ledger.SaveAssignments: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadOrderFields(ctx context.Context) ([]models.OrderFieldUpdate, error) {
	var entries []models.OrderFieldUpdate
	if err := s.load(ctx, orderFieldsKey, &entries); err != nil {
		return nil, fmt.Errorf("ledger.LoadOrderFields: %w", err)
	}
	return entries, nil
}

func (s *RedisStore) SaveOrderFields(ctx context.Context, entries []models.OrderFieldUpdate) error {
	if err := s.save(ctx, orderFieldsKey, entries); err != nil {
		return fmt.Errorf("ledger.SaveOrderFields: %w", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, key string, dest any) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil // empty collection
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (s *RedisStore) save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, raw, 0).Err()
}
