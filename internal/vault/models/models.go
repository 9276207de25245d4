package models

import (
	"math"
	"time"

	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

// PoolRecord binds an asset to its derived pool address. The pooled balance
// lives in the token ledger at Holder, which always equals Address.
type PoolRecord struct {
	Asset     id.Address `json:"asset"`
	Address   id.Address `json:"address"`
	Bump      uint8      `json:"bump"`
	Holder    id.Address `json:"holder"`
	CreatedAt time.Time  `json:"created_at"`
}

// AccessRecord tracks what the vault owes one owner for one asset. Owner is
// fixed at creation; Owed is the only field that ever changes.
type AccessRecord struct {
	Address   id.Address `json:"address"`
	Asset     id.Address `json:"asset"`
	Owner     id.Address `json:"owner"`
	Owed      uint64     `json:"owed"`
	Bump      uint8      `json:"bump"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// OwnedBy reports whether identity is the record's owner.
func (r *AccessRecord) OwnedBy(identity id.Address) bool {
	return !identity.IsZero() && r.Owner == identity
}

// CanCredit checks that crediting amount would not overflow.
func (r *AccessRecord) CanCredit(amount uint64) error {
	if r.Owed > math.MaxUint64-amount {
		return dErrors.New(dErrors.CodeArithmeticOverflow, "owed amount would overflow")
	}
	return nil
}

// Credit adds amount to Owed.
func (r *AccessRecord) Credit(amount uint64, now time.Time) error {
	if err := r.CanCredit(amount); err != nil {
		return err
	}
	r.Owed += amount
	r.UpdatedAt = now
	return nil
}

// Debit removes amount from Owed. The check is against the record, never
// against the pool balance.
func (r *AccessRecord) Debit(amount uint64, now time.Time) error {
	if amount > r.Owed {
		return dErrors.New(dErrors.CodeInsufficientLedgerBalance, "amount exceeds owed balance")
	}
	r.Owed -= amount
	r.UpdatedAt = now
	return nil
}

// PoolView is a pool record together with the pooled holder's live balance.
type PoolView struct {
	Pool    *PoolRecord `json:"pool"`
	Balance uint64      `json:"balance"`
}
