// Package token is the trusted value-transfer primitive the vault relies on.
// It keeps balance-holder accounts and moves value between them atomically,
// authorized either by the source owner's signature or by a derived-address
// proof when the source is owned by a derived address.
//
// The vault core treats this package as an external collaborator: it never
// reimplements its checks and surfaces its errors unmodified.
package token

import (
	"time"

	"tokenvault/internal/vault/address"
	id "tokenvault/pkg/domain"
)

// Holder is a balance-bearing account for a single asset. Owner is the
// authority allowed to move funds out of it; for a pool holder the owner is
// the derived pool address itself.
type Holder struct {
	Address   id.Address `json:"address"`
	Asset     id.Address `json:"asset"`
	Owner     id.Address `json:"owner"`
	Balance   uint64     `json:"balance"`
	Frozen    bool       `json:"frozen"`
	CreatedAt time.Time  `json:"created_at"`
}

// OpenRequest describes a holder to create.
type OpenRequest struct {
	Address id.Address
	Asset   id.Address
	Owner   id.Address
}

// Authorization proves the right to debit a source holder. Exactly one of
// Signer or Proof is set.
type Authorization struct {
	Signer id.Address
	Proof  address.Proof
}

// SignedBy authorizes a transfer with the source owner's own identity.
func SignedBy(signer id.Address) Authorization {
	return Authorization{Signer: signer}
}

// DerivedBy authorizes a transfer out of a derived-address-owned holder.
func DerivedBy(proof address.Proof) Authorization {
	return Authorization{Proof: proof}
}

// TransferRequest moves Amount from From to To.
type TransferRequest struct {
	From   id.Address
	To     id.Address
	Amount uint64
	Auth   Authorization
}
