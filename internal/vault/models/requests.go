package models

import (
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

// InitializeAccessRequest asks for the access record of Owner under Asset at
// the Access address the caller computed.
type InitializeAccessRequest struct {
	Asset  id.Address
	Owner  id.Address
	Access id.Address
}

func (r InitializeAccessRequest) Validate() error {
	if r.Asset.IsZero() || r.Access.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "asset and access address are required")
	}
	if r.Owner.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "requester identity is required")
	}
	return nil
}

// DepositRequest moves Amount from the requester's Source holder into Pool
// and credits Access.
type DepositRequest struct {
	Requester id.Address
	Source    id.Address
	Pool      id.Address
	Access    id.Address
	Amount    uint64
}

func (r DepositRequest) Validate() error {
	if r.Requester.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "requester identity is required")
	}
	if r.Source.IsZero() || r.Pool.IsZero() || r.Access.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "source, pool and access addresses are required")
	}
	if r.Amount == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}
	return nil
}

// WithdrawRequest debits Access and moves Amount from Pool to the
// requester's Destination holder.
type WithdrawRequest struct {
	Requester   id.Address
	Destination id.Address
	Pool        id.Address
	Access      id.Address
	Amount      uint64
}

func (r WithdrawRequest) Validate() error {
	if r.Requester.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "requester identity is required")
	}
	if r.Destination.IsZero() || r.Pool.IsZero() || r.Access.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "destination, pool and access addresses are required")
	}
	if r.Amount == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}
	return nil
}
