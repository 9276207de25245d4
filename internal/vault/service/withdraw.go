package service

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"tokenvault/internal/token"
	"tokenvault/internal/vault/address"
	"tokenvault/internal/vault/models"
	dErrors "tokenvault/pkg/domain-errors"
	audit "tokenvault/pkg/platform/audit"
	"tokenvault/pkg/requestcontext"
)

// Withdraw debits the requester's access record and moves req.Amount out of
// the pool into the requester's destination holder. The pool signs with its
// derivation proof. A failed transfer leaves the record as it was.
func (s *Service) Withdraw(ctx context.Context, req models.WithdrawRequest) (record *models.AccessRecord, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "withdraw",
		addrAttr("access", req.Access),
		attribute.String("amount", strconv.FormatUint(req.Amount, 10)),
	)
	defer func() {
		s.finish(ctx, span, "withdraw", start, err, "owner", req.Requester, "access", req.Access, "amount", req.Amount)
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	destination, err := s.ledger.Holder(ctx, req.Destination)
	if err != nil {
		return nil, ledgerError(err, "failed to load destination holder")
	}
	asset := destination.Asset
	pool, err := s.verifyPool(asset, req.Pool)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, req.Access, func(ctx context.Context, store Store, tokens Transferer) error {
		current, err := s.loadAccess(ctx, store, asset, req.Access, req.Requester)
		if err != nil {
			return err
		}
		if destination.Owner != req.Requester {
			return dErrors.New(dErrors.CodeNotAuthorized, "destination holder is not controlled by the requester")
		}
		if !current.OwnedBy(req.Requester) {
			return dErrors.New(dErrors.CodeNotAuthorized, "requester does not own the access record")
		}

		now := requestcontext.Now(ctx)
		if err := current.Debit(req.Amount, now); err != nil {
			return err
		}
		if err := store.UpdateOwed(ctx, current.Address, current.Owed, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update owed amount")
		}
		if err := s.emit(ctx, audit.EventWithdrawn, audit.Event{
			Subject: req.Requester.String(),
			Asset:   asset.String(),
			Access:  req.Access.String(),
			Holder:  req.Destination.String(),
			Amount:  req.Amount,
		}); err != nil {
			return err
		}
		proof := address.NewProof(address.PoolNamespace, pool.Bump, asset[:])
		if err := tokens.Transfer(ctx, token.TransferRequest{
			From:   pool.Address,
			To:     req.Destination,
			Amount: req.Amount,
			Auth:   token.DerivedBy(proof),
		}); err != nil {
			return ledgerError(err, "withdrawal transfer failed")
		}
		record = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.AddAmount("withdraw", req.Amount)
	}
	return record, nil
}
