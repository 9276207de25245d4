package service

import (
	"context"
	"errors"
	"time"

	"tokenvault/internal/token"
	"tokenvault/internal/vault/address"
	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	audit "tokenvault/pkg/platform/audit"
	"tokenvault/pkg/platform/sentinel"
	"tokenvault/pkg/requestcontext"
)

// errCreateRaced marks a create that lost to a concurrent create of the same
// key. The winner's record is read back after the transaction ends.
var errCreateRaced = errors.New("create raced")

// InitializePool creates the pooled holder for asset at its derived pool
// address, owned by that address, and records the pool. An initialized pool
// is returned as is; created reports whether this call made it.
func (s *Service) InitializePool(ctx context.Context, asset id.Address) (pool *models.PoolRecord, created bool, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "initialize_pool", addrAttr("asset", asset))
	defer func() {
		s.finish(ctx, span, "initialize_pool", start, err, "asset", asset, "created", created)
	}()

	if asset.IsZero() {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "asset is required")
	}
	derived, err := s.resolver.Pool(asset)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive pool address")
	}

	err = s.tx.RunInTx(ctx, derived.Address, func(ctx context.Context, store Store, _ Transferer) error {
		existing, err := store.FindPool(ctx, asset)
		if err == nil {
			pool = existing
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pool")
		}

		_, err = s.ledger.Open(ctx, token.OpenRequest{Address: derived.Address, Asset: asset, Owner: derived.Address})
		if err != nil {
			if token.IsKind(err, token.KindAccountExists) {
				return dErrors.Wrap(err, dErrors.CodeConflict, "pool address holds an account with another owner")
			}
			return ledgerError(err, "failed to open pool holder")
		}

		now := requestcontext.Now(ctx)
		record := &models.PoolRecord{
			Asset:     asset,
			Address:   derived.Address,
			Bump:      derived.Bump,
			Holder:    derived.Address,
			CreatedAt: now,
		}
		if err := store.CreatePool(ctx, record); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return errCreateRaced
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create pool")
		}
		if err := s.emit(ctx, audit.EventPoolInitialized, audit.Event{
			Subject: requestcontext.Identity(ctx).String(),
			Asset:   asset.String(),
			Holder:  derived.Address.String(),
		}); err != nil {
			return err
		}
		pool, created = record, true
		return nil
	})
	if errors.Is(err, errCreateRaced) {
		pool, err = s.store.FindPool(ctx, asset)
		if err != nil {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pool")
		}
		return pool, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return pool, created, nil
}

// InitializeAccess creates the access record of (asset, owner) with nothing
// owed. The supplied access address must equal its derivation. Repeating the
// call returns the existing record untouched.
func (s *Service) InitializeAccess(ctx context.Context, req models.InitializeAccessRequest) (record *models.AccessRecord, created bool, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "initialize_access", addrAttr("asset", req.Asset), addrAttr("access", req.Access))
	defer func() {
		s.finish(ctx, span, "initialize_access", start, err, "asset", req.Asset, "owner", req.Owner, "access", req.Access)
	}()

	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	derived, err := s.resolver.Access(req.Asset, req.Owner)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive access address")
	}
	if err := address.Verify("access", derived.Address, req.Access); err != nil {
		return nil, false, err
	}

	err = s.tx.RunInTx(ctx, derived.Address, func(ctx context.Context, store Store, _ Transferer) error {
		if _, err := store.FindPool(ctx, req.Asset); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "pool is not initialized for asset")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pool")
		}

		existing, err := store.FindAccess(ctx, derived.Address)
		if err == nil {
			record = existing
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load access record")
		}

		now := requestcontext.Now(ctx)
		fresh := &models.AccessRecord{
			Address:   derived.Address,
			Asset:     req.Asset,
			Owner:     req.Owner,
			Bump:      derived.Bump,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.CreateAccess(ctx, fresh); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return errCreateRaced
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create access record")
		}
		if err := s.emit(ctx, audit.EventAccessInitialized, audit.Event{
			Subject: req.Owner.String(),
			Asset:   req.Asset.String(),
			Access:  derived.Address.String(),
		}); err != nil {
			return err
		}
		record, created = fresh, true
		return nil
	})
	if errors.Is(err, errCreateRaced) {
		record, err = s.store.FindAccess(ctx, derived.Address)
		if err != nil {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load access record")
		}
		return record, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return record, created, nil
}

// GetPool returns the pool record of asset with the pooled balance.
func (s *Service) GetPool(ctx context.Context, asset id.Address) (*models.PoolView, error) {
	pool, err := s.store.FindPool(ctx, asset)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "pool is not initialized for asset")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pool")
	}
	holder, err := s.ledger.Holder(ctx, pool.Holder)
	if err != nil {
		return nil, ledgerError(err, "failed to load pool holder")
	}
	return &models.PoolView{Pool: pool, Balance: holder.Balance}, nil
}

// GetAccess returns the access record of (asset, owner).
func (s *Service) GetAccess(ctx context.Context, asset, owner id.Address) (*models.AccessRecord, error) {
	if asset.IsZero() || owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "asset and owner are required")
	}
	derived, err := s.resolver.Access(asset, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive access address")
	}
	record, err := s.store.FindAccess(ctx, derived.Address)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "access record is not initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load access record")
	}
	return record, nil
}
