package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mr-tron/base58"

	dErrors "tokenvault/pkg/domain-errors"
)

// AddressLen is the byte length of every account key in the system.
const AddressLen = 32

// maxEncodedAddressLen bounds base58 input before decoding. A 32-byte key
// encodes to at most 44 characters.
const maxEncodedAddressLen = 44

// Address is a 32-byte account key. Asset identifiers (mints), owner
// identities, balance holders and derived vault addresses all share it.
// It is a domain primitive: values from the outside world go through
// ParseAddress before they reach a service.
type Address [AddressLen]byte

// ZeroAddress is the all-zero key. It is never a valid party.
var ZeroAddress Address

// ParseAddress decodes a base58 address and rejects anything that is not
// exactly 32 non-zero bytes.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	if len(s) > maxEncodedAddressLen || strings.TrimSpace(s) != s {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address is malformed")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return Address{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "address is not base58")
	}
	addr, err := AddressFromBytes(raw)
	if err != nil {
		return Address{}, err
	}
	return addr, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// AddressFromBytes copies a raw 32-byte key.
func AddressFromBytes(raw []byte) (Address, error) {
	var addr Address
	if len(raw) != AddressLen {
		return addr, dErrors.New(dErrors.CodeInvalidInput, "address must be 32 bytes")
	}
	copy(addr[:], raw)
	if addr.IsZero() {
		return addr, dErrors.New(dErrors.CodeInvalidInput, "address must not be zero")
	}
	return addr, nil
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

// Bytes returns a copy of the key bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, AddressLen)
	copy(out, a[:])
	return out
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Less orders addresses bytewise. Lock acquisition uses it to avoid deadlocks.
func (a Address) Less(other Address) bool {
	return bytes.Compare(a[:], other[:]) < 0
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON keeps the zero address out of payloads as an empty string.
func (a Address) MarshalJSON() ([]byte, error) {
	if a.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(a.String())
}
