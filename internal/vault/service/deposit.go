package service

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"tokenvault/internal/token"
	"tokenvault/internal/vault/models"
	dErrors "tokenvault/pkg/domain-errors"
	audit "tokenvault/pkg/platform/audit"
	"tokenvault/pkg/requestcontext"
)

// Deposit moves req.Amount from the requester's source holder into the pool
// and credits the requester's access record by the same amount. The credit
// and the transfer either both happen or neither does.
func (s *Service) Deposit(ctx context.Context, req models.DepositRequest) (record *models.AccessRecord, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "deposit",
		addrAttr("access", req.Access),
		attribute.String("amount", strconv.FormatUint(req.Amount, 10)),
	)
	defer func() {
		s.finish(ctx, span, "deposit", start, err, "owner", req.Requester, "access", req.Access, "amount", req.Amount)
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	source, err := s.ledger.Holder(ctx, req.Source)
	if err != nil {
		return nil, ledgerError(err, "failed to load source holder")
	}
	asset := source.Asset
	if _, err := s.verifyPool(asset, req.Pool); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, req.Access, func(ctx context.Context, store Store, tokens Transferer) error {
		current, err := s.loadAccess(ctx, store, asset, req.Access, req.Requester)
		if err != nil {
			return err
		}
		if !current.OwnedBy(req.Requester) {
			return dErrors.New(dErrors.CodeNotAuthorized, "requester does not own the access record")
		}

		now := requestcontext.Now(ctx)
		if err := current.Credit(req.Amount, now); err != nil {
			return err
		}
		if err := store.UpdateOwed(ctx, current.Address, current.Owed, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update owed amount")
		}
		if err := s.emit(ctx, audit.EventDeposited, audit.Event{
			Subject: req.Requester.String(),
			Asset:   asset.String(),
			Access:  req.Access.String(),
			Holder:  req.Source.String(),
			Amount:  req.Amount,
		}); err != nil {
			return err
		}
		if err := tokens.Transfer(ctx, token.TransferRequest{
			From:   req.Source,
			To:     req.Pool,
			Amount: req.Amount,
			Auth:   token.SignedBy(req.Requester),
		}); err != nil {
			return ledgerError(err, "deposit transfer failed")
		}
		record = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.AddAmount("deposit", req.Amount)
	}
	return record, nil
}
