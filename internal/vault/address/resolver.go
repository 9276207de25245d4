// Package address derives the vault's control addresses. A derived address is
// a hash of public seeds that is forced off the ed25519 curve, so no private
// key can ever exist for it. Authority over such an address is exercised by
// presenting the seeds (a Proof), never by signing.
package address

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

const (
	// PoolNamespace tags the per-asset pool address.
	PoolNamespace = "vault"
	// AccessNamespace tags the per-(asset, owner) access record address.
	AccessNamespace = "vault-access"

	// MaxSeeds counts every seed including the bump.
	MaxSeeds = 16
	// MaxSeedLen bounds a single seed.
	MaxSeedLen = 32

	derivationMarker = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedLength = errors.New("seed exceeds maximum length")
	ErrTooManySeeds  = errors.New("too many seeds")
	// ErrOnCurve means the seeds hash to a point with a possible private key.
	ErrOnCurve = errors.New("derived address is on the ed25519 curve")
	// ErrNoViableBump is a configuration failure: no bump in 255..0 produced
	// an off-curve address.
	ErrNoViableBump = errors.New("unable to find a viable bump seed")
)

// Derived is an address together with the bump that produced it.
type Derived struct {
	Address id.Address
	Bump    uint8
}

// Resolver derives addresses under one program identity. It holds no state
// beyond that identity and is safe for concurrent use.
type Resolver struct {
	programID id.Address
}

// New returns a Resolver scoped to programID.
func New(programID id.Address) *Resolver {
	return &Resolver{programID: programID}
}

// ProgramID returns the identity every derivation is bound to.
func (r *Resolver) ProgramID() id.Address {
	return r.programID
}

// Create hashes seeds (which must already include the bump) into an address,
// failing with ErrOnCurve when the result is a valid curve point.
func (r *Resolver) Create(seeds ...[]byte) (id.Address, error) {
	if len(seeds) > MaxSeeds {
		return id.Address{}, ErrTooManySeeds
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return id.Address{}, ErrMaxSeedLength
		}
		h.Write(seed)
	}
	h.Write(r.programID[:])
	h.Write([]byte(derivationMarker))

	var addr id.Address
	copy(addr[:], h.Sum(nil))
	if onCurve(addr) {
		return id.Address{}, ErrOnCurve
	}
	return addr, nil
}

// Derive searches bumps from 255 down to 0 and returns the first off-curve
// address for (namespace, keys...).
func (r *Resolver) Derive(namespace string, keys ...[]byte) (Derived, error) {
	seeds := make([][]byte, 0, len(keys)+2)
	seeds = append(seeds, []byte(namespace))
	seeds = append(seeds, keys...)
	if len(seeds)+1 > MaxSeeds {
		return Derived{}, ErrTooManySeeds
	}

	bump := []byte{0}
	seeds = append(seeds, bump)
	for b := 255; b >= 0; b-- {
		bump[0] = uint8(b)
		addr, err := r.Create(seeds...)
		if err == nil {
			return Derived{Address: addr, Bump: uint8(b)}, nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return Derived{}, err
		}
	}
	return Derived{}, ErrNoViableBump
}

// Pool derives the pool address for asset.
func (r *Resolver) Pool(asset id.Address) (Derived, error) {
	return r.Derive(PoolNamespace, asset[:])
}

// Access derives the access record address for (asset, owner).
func (r *Resolver) Access(asset, owner id.Address) (Derived, error) {
	return r.Derive(AccessNamespace, asset[:], owner[:])
}

// Verify rejects a supplied address that differs from its expected derivation.
// what names the address kind in the error message.
func Verify(what string, expected, supplied id.Address) error {
	if expected != supplied {
		return dErrors.New(dErrors.CodeInvalidDerivedAddress,
			fmt.Sprintf("%s address does not match its derivation", what))
	}
	return nil
}

// Proof authorizes a transfer out of a derived address. It carries the exact
// derivation inputs; the verifier re-hashes them and compares the result with
// the source account's authority.
type Proof struct {
	namespace string
	keys      [][]byte
	bump      uint8
}

// NewProof builds a Proof. Keys are copied.
func NewProof(namespace string, bump uint8, keys ...[]byte) Proof {
	copied := make([][]byte, len(keys))
	for i, k := range keys {
		copied[i] = append([]byte(nil), k...)
	}
	return Proof{namespace: namespace, keys: copied, bump: bump}
}

// Seeds returns namespace, keys and bump in derivation order.
func (p Proof) Seeds() [][]byte {
	seeds := make([][]byte, 0, len(p.keys)+2)
	seeds = append(seeds, []byte(p.namespace))
	for _, k := range p.keys {
		seeds = append(seeds, append([]byte(nil), k...))
	}
	return append(seeds, []byte{p.bump})
}

// IsZero reports whether p was never built.
func (p Proof) IsZero() bool {
	return p.namespace == "" && len(p.keys) == 0 && p.bump == 0
}

// Authorizes reports whether p re-derives to authority under r.
func (r *Resolver) Authorizes(p Proof, authority id.Address) bool {
	if p.IsZero() {
		return false
	}
	addr, err := r.Create(p.Seeds()...)
	if err != nil {
		return false
	}
	return addr == authority
}

func onCurve(addr id.Address) bool {
	_, err := new(edwards25519.Point).SetBytes(addr[:])
	return err == nil
}
