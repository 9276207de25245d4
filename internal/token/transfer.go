package token

import (
	"math"

	"tokenvault/internal/vault/address"
)

// execute validates req against the two holders and applies the balance
// change in place. It either changes both balances or neither.
func execute(resolver *address.Resolver, from, to *Holder, req TransferRequest) error {
	if req.Amount == 0 {
		return newError(KindInvalidAmount, req.From, "amount must be positive")
	}
	if err := authorize(resolver, from, req.Auth); err != nil {
		return err
	}
	if from.Asset != to.Asset {
		return newError(KindAssetMismatch, req.To, "holders carry different assets")
	}
	if from.Frozen {
		return newError(KindAccountFrozen, from.Address, "source holder is frozen")
	}
	if to.Frozen {
		return newError(KindAccountFrozen, to.Address, "destination holder is frozen")
	}
	if from.Balance < req.Amount {
		return newError(KindInsufficientFunds, from.Address, "balance below transfer amount")
	}
	if from.Address == to.Address {
		return nil
	}
	if to.Balance > math.MaxUint64-req.Amount {
		return newError(KindOverflow, to.Address, "destination balance would overflow")
	}
	from.Balance -= req.Amount
	to.Balance += req.Amount
	return nil
}

func authorize(resolver *address.Resolver, from *Holder, auth Authorization) error {
	switch {
	case !auth.Signer.IsZero():
		if auth.Signer != from.Owner {
			return newError(KindInvalidAuthority, from.Address, "signer does not own the source holder")
		}
		return nil
	case !auth.Proof.IsZero():
		if resolver == nil || !resolver.Authorizes(auth.Proof, from.Owner) {
			return newError(KindInvalidAuthority, from.Address, "derived authority proof rejected")
		}
		return nil
	default:
		return newError(KindInvalidAuthority, from.Address, "transfer is not authorized")
	}
}

func mint(h *Holder, amount uint64) error {
	if amount == 0 {
		return newError(KindInvalidAmount, h.Address, "amount must be positive")
	}
	if h.Balance > math.MaxUint64-amount {
		return newError(KindOverflow, h.Address, "balance would overflow")
	}
	h.Balance += amount
	return nil
}

func validateOpen(req OpenRequest) error {
	if req.Address.IsZero() || req.Asset.IsZero() || req.Owner.IsZero() {
		return newError(KindInvalidRequest, req.Address, "holder address, asset and owner are required")
	}
	return nil
}

// sameHolder reports whether an existing holder satisfies an open request.
func sameHolder(h *Holder, req OpenRequest) bool {
	return h.Asset == req.Asset && h.Owner == req.Owner
}
