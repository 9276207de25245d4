package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tokenvault/internal/token"
	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	audit "tokenvault/pkg/platform/audit"
	"tokenvault/pkg/platform/sentinel"
)

// CommittingLedger is a ledger that can publish caller bookkeeping inside its
// own critical section, between validating and applying a transfer.
type CommittingLedger interface {
	TransferAndCommit(ctx context.Context, req token.TransferRequest, commit func() error) error
}

// defaultVaultTxTimeout bounds a unit of work when the caller set no deadline.
const defaultVaultTxTimeout = 5 * time.Second

// KeyedTx is the in-memory VaultTx. Each key gets its own mutex for as long
// as a caller holds or waits for it, so work on different keys never queues
// on a shared lock. Writes and audit events made by fn are staged and only
// reach the store when fn succeeds; a transfer publishes them in the same
// ledger critical section that moves the value.
type KeyedTx struct {
	mu      sync.Mutex
	locks   map[id.Address]*keyLock
	store   Store
	ledger  CommittingLedger
	timeout time.Duration
}

type keyLock struct {
	mu      sync.Mutex
	holders int
}

// NewKeyedTx builds an in-memory transaction runner over store and ledger.
// A zero timeout selects the default.
func NewKeyedTx(store Store, ledger CommittingLedger, timeout time.Duration) *KeyedTx {
	return &KeyedTx{locks: make(map[id.Address]*keyLock), store: store, ledger: ledger, timeout: timeout}
}

func (t *KeyedTx) RunInTx(ctx context.Context, key id.Address, fn func(ctx context.Context, store Store, tokens Transferer) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultVaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	unlock := t.lock(key)
	defer unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, events := audit.WithBuffer(ctx)
	staged := newStagedStore(t.store, events)
	if err := fn(ctx, staged, &committingTransferer{ledger: t.ledger, staged: staged}); err != nil {
		events.Discard()
		return err
	}
	// Writes made after the last transfer, or by work with no transfer.
	if err := staged.flush(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit vault changes")
	}
	return nil
}

// lock blocks until the caller is the only holder of key.
func (t *KeyedTx) lock(key id.Address) (unlock func()) {
	t.mu.Lock()
	l, ok := t.locks[key]
	if !ok {
		l = &keyLock{}
		t.locks[key] = l
	}
	l.holders++
	t.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		t.mu.Lock()
		l.holders--
		if l.holders == 0 {
			delete(t.locks, key)
		}
		t.mu.Unlock()
	}
}

type committingTransferer struct {
	ledger CommittingLedger
	staged *stagedStore
}

func (c *committingTransferer) Transfer(ctx context.Context, req token.TransferRequest) error {
	return c.ledger.TransferAndCommit(ctx, req, func() error {
		return c.staged.flush(ctx)
	})
}

type owedWrite struct {
	owed      uint64
	updatedAt time.Time
}

// stagedStore buffers writes over a base store. Reads see the buffered
// writes first.
type stagedStore struct {
	base   Store
	events *audit.Buffer
	pools  map[id.Address]models.PoolRecord
	access map[id.Address]models.AccessRecord
	owed   map[id.Address]owedWrite
}

func newStagedStore(base Store, events *audit.Buffer) *stagedStore {
	return &stagedStore{
		base:   base,
		events: events,
		pools:  make(map[id.Address]models.PoolRecord),
		access: make(map[id.Address]models.AccessRecord),
		owed:   make(map[id.Address]owedWrite),
	}
}

func (s *stagedStore) CreatePool(ctx context.Context, pool *models.PoolRecord) error {
	if _, err := s.FindPool(ctx, pool.Asset); err == nil {
		return fmt.Errorf("pool for asset %s: %w", pool.Asset, sentinel.ErrConflict)
	}
	s.pools[pool.Asset] = *pool
	return nil
}

func (s *stagedStore) FindPool(ctx context.Context, asset id.Address) (*models.PoolRecord, error) {
	if pool, ok := s.pools[asset]; ok {
		return &pool, nil
	}
	return s.base.FindPool(ctx, asset)
}

func (s *stagedStore) CreateAccess(ctx context.Context, record *models.AccessRecord) error {
	if _, err := s.FindAccess(ctx, record.Address); err == nil {
		return fmt.Errorf("access record %s: %w", record.Address, sentinel.ErrConflict)
	}
	s.access[record.Address] = *record
	return nil
}

func (s *stagedStore) FindAccess(ctx context.Context, address id.Address) (*models.AccessRecord, error) {
	var record *models.AccessRecord
	if staged, ok := s.access[address]; ok {
		record = &staged
	} else {
		found, err := s.base.FindAccess(ctx, address)
		if err != nil {
			return nil, err
		}
		record = found
	}
	if w, ok := s.owed[address]; ok {
		record.Owed = w.owed
		record.UpdatedAt = w.updatedAt
	}
	return record, nil
}

func (s *stagedStore) UpdateOwed(ctx context.Context, address id.Address, owed uint64, updatedAt time.Time) error {
	if _, err := s.FindAccess(ctx, address); err != nil {
		return err
	}
	s.owed[address] = owedWrite{owed: owed, updatedAt: updatedAt}
	return nil
}

// flush writes the queued audit events, then everything staged to the base
// store, and clears both buffers.
func (s *stagedStore) flush(ctx context.Context) error {
	if err := s.events.Flush(ctx); err != nil {
		return err
	}
	for asset, pool := range s.pools {
		if err := s.base.CreatePool(ctx, &pool); err != nil {
			return err
		}
		delete(s.pools, asset)
	}
	for address, record := range s.access {
		if w, ok := s.owed[address]; ok {
			record.Owed = w.owed
			record.UpdatedAt = w.updatedAt
			delete(s.owed, address)
		}
		if err := s.base.CreateAccess(ctx, &record); err != nil {
			return err
		}
		delete(s.access, address)
	}
	for address, w := range s.owed {
		if err := s.base.UpdateOwed(ctx, address, w.owed, w.updatedAt); err != nil {
			return err
		}
		delete(s.owed, address)
	}
	return nil
}
