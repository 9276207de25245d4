package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/sentinel"
)

// Error Contract:
//   - ErrNotFound when the requested record does not exist
//   - ErrConflict when a create collides with an existing key
//
// InMemory keeps pool and access records in maps for tests and dev. Records
// are copied in and out so callers never share memory with the store.
type InMemory struct {
	mu     sync.RWMutex
	pools  map[id.Address]models.PoolRecord
	access map[id.Address]models.AccessRecord
}

// NewInMemory constructs an empty in-memory vault store.
func NewInMemory() *InMemory {
	return &InMemory{
		pools:  make(map[id.Address]models.PoolRecord),
		access: make(map[id.Address]models.AccessRecord),
	}
}

func (s *InMemory) CreatePool(_ context.Context, pool *models.PoolRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pools[pool.Asset]; ok {
		return fmt.Errorf("pool for asset %s: %w", pool.Asset, sentinel.ErrConflict)
	}
	s.pools[pool.Asset] = *pool
	return nil
}

func (s *InMemory) FindPool(_ context.Context, asset id.Address) (*models.PoolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.pools[asset]
	if !ok {
		return nil, fmt.Errorf("pool for asset %s: %w", asset, sentinel.ErrNotFound)
	}
	return &pool, nil
}

func (s *InMemory) CreateAccess(_ context.Context, record *models.AccessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.access[record.Address]; ok {
		return fmt.Errorf("access record %s: %w", record.Address, sentinel.ErrConflict)
	}
	s.access[record.Address] = *record
	return nil
}

func (s *InMemory) FindAccess(_ context.Context, address id.Address) (*models.AccessRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.access[address]
	if !ok {
		return nil, fmt.Errorf("access record %s: %w", address, sentinel.ErrNotFound)
	}
	return &record, nil
}

// UpdateOwed overwrites the owed amount. Owner and asset are never touched.
func (s *InMemory) UpdateOwed(_ context.Context, address id.Address, owed uint64, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.access[address]
	if !ok {
		return fmt.Errorf("access record %s: %w", address, sentinel.ErrNotFound)
	}
	record.Owed = owed
	record.UpdatedAt = updatedAt
	s.access[address] = record
	return nil
}

// ListAccessByAsset returns every access record of asset. Used to check the
// pool conservation invariant.
func (s *InMemory) ListAccessByAsset(_ context.Context, asset id.Address) ([]*models.AccessRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.AccessRecord
	for _, record := range s.access {
		if record.Asset == asset {
			out = append(out, &record)
		}
	}
	return out, nil
}
