package service

import (
	"context"
	"errors"

	"tokenvault/internal/token"
	"tokenvault/internal/vault/address"
	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	"tokenvault/pkg/platform/sentinel"
)

// verifyPool re-derives the pool address from a trusted asset and compares it
// with the supplied one.
func (s *Service) verifyPool(asset, supplied id.Address) (address.Derived, error) {
	expected, err := s.resolver.Pool(asset)
	if err != nil {
		return address.Derived{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive pool address")
	}
	if err := address.Verify("pool", expected.Address, supplied); err != nil {
		return address.Derived{}, err
	}
	return expected, nil
}

// loadAccess reads the access record at supplied and proves it is the
// derivation of (asset, record owner). A missing record is only reported as
// not found when supplied is what the requester's own derivation would be;
// any other address is invalid.
func (s *Service) loadAccess(ctx context.Context, store Store, asset, supplied, requester id.Address) (*models.AccessRecord, error) {
	record, err := store.FindAccess(ctx, supplied)
	if errors.Is(err, sentinel.ErrNotFound) {
		expected, derr := s.resolver.Access(asset, requester)
		if derr != nil {
			return nil, dErrors.Wrap(derr, dErrors.CodeInternal, "failed to derive access address")
		}
		if verr := address.Verify("access", expected.Address, supplied); verr != nil {
			return nil, verr
		}
		return nil, dErrors.New(dErrors.CodeNotFound, "access record is not initialized")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load access record")
	}
	if record.Asset != asset {
		return nil, dErrors.New(dErrors.CodeInvalidDerivedAddress, "access address does not match its derivation")
	}
	expected, err := s.resolver.Access(asset, record.Owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive access address")
	}
	if err := address.Verify("access", expected.Address, supplied); err != nil {
		return nil, err
	}
	return record, nil
}

// ledgerError keeps token ledger rejections unmodified and wraps anything
// else as internal.
func ledgerError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := token.AsError(err); ok {
		return err
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
