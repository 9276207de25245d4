package token

import (
	"errors"
	"fmt"

	id "tokenvault/pkg/domain"
)

// ErrorKind classifies a rejected ledger operation.
type ErrorKind string

const (
	KindAccountNotFound   ErrorKind = "account_not_found"
	KindAccountExists     ErrorKind = "account_exists"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindAccountFrozen     ErrorKind = "account_frozen"
	KindAssetMismatch     ErrorKind = "asset_mismatch"
	KindInvalidAuthority  ErrorKind = "invalid_authority"
	KindInvalidAmount     ErrorKind = "invalid_amount"
	KindInvalidRequest    ErrorKind = "invalid_request"
	KindOverflow          ErrorKind = "overflow"
)

// Error is returned for every rejected ledger operation. Callers that
// propagate it must do so unmodified so errors.As keeps working.
type Error struct {
	Kind    ErrorKind
	Account id.Address
	Message string
}

func (e *Error) Error() string {
	if e.Account.IsZero() {
		return fmt.Sprintf("token: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("token: %s: %s (account %s)", e.Kind, e.Message, e.Account)
}

func newError(kind ErrorKind, account id.Address, msg string) *Error {
	return &Error{Kind: kind, Account: account, Message: msg}
}

// IsKind reports whether err is a ledger Error of kind.
func IsKind(err error, kind ErrorKind) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == kind
}

// AsError extracts a ledger Error from err's chain.
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
