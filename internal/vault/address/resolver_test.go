package address

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

func fill(b byte) id.Address {
	var a id.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func TestDerive_Deterministic(t *testing.T) {
	r := New(fill(0xAA))
	asset := fill(1)

	first, err := r.Pool(asset)
	require.NoError(t, err)
	second, err := r.Pool(asset)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.False(t, first.Address.IsZero())
	assert.False(t, onCurve(first.Address), "derived address must be off curve")
}

func TestDerive_BindsEveryInput(t *testing.T) {
	r := New(fill(0xAA))
	asset, owner, other := fill(1), fill(2), fill(3)

	pool, err := r.Pool(asset)
	require.NoError(t, err)
	access, err := r.Access(asset, owner)
	require.NoError(t, err)
	otherOwner, err := r.Access(asset, other)
	require.NoError(t, err)
	otherAsset, err := r.Access(other, owner)
	require.NoError(t, err)
	otherProgram, err := New(fill(0xBB)).Pool(asset)
	require.NoError(t, err)

	addrs := []id.Address{pool.Address, access.Address, otherOwner.Address, otherAsset.Address, otherProgram.Address}
	seen := make(map[id.Address]bool)
	for _, a := range addrs {
		assert.False(t, seen[a], "addresses must differ across namespaces, keys and programs")
		seen[a] = true
	}
}

func TestDerive_BumpIsFirstViable(t *testing.T) {
	r := New(fill(0xAA))
	asset := fill(4)

	d, err := r.Pool(asset)
	require.NoError(t, err)

	for b := 255; b > int(d.Bump); b-- {
		_, err := r.Create([]byte(PoolNamespace), asset[:], []byte{uint8(b)})
		assert.ErrorIs(t, err, ErrOnCurve, "bump %d above the chosen one must be on curve", b)
	}
	got, err := r.Create([]byte(PoolNamespace), asset[:], []byte{d.Bump})
	require.NoError(t, err)
	assert.Equal(t, d.Address, got)
}

func TestCreate_SeedLimits(t *testing.T) {
	r := New(fill(0xAA))

	_, err := r.Create(bytes.Repeat([]byte{1}, MaxSeedLen+1))
	assert.ErrorIs(t, err, ErrMaxSeedLength)

	seeds := make([][]byte, MaxSeeds+1)
	for i := range seeds {
		seeds[i] = []byte{byte(i)}
	}
	_, err = r.Create(seeds...)
	assert.ErrorIs(t, err, ErrTooManySeeds)

	_, err = r.Derive(PoolNamespace, seeds[:MaxSeeds]...)
	assert.ErrorIs(t, err, ErrTooManySeeds)
}

func TestVerify(t *testing.T) {
	a, b := fill(5), fill(6)

	require.NoError(t, Verify("pool", a, a))

	err := Verify("pool", a, b)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidDerivedAddress))
	assert.Contains(t, err.Error(), "pool")
}

func TestProof_ReproducesDerivation(t *testing.T) {
	r := New(fill(0xAA))
	asset := fill(7)
	pool, err := r.Pool(asset)
	require.NoError(t, err)

	proof := NewProof(PoolNamespace, pool.Bump, asset[:])
	assert.True(t, r.Authorizes(proof, pool.Address))

	t.Run("wrong bump is rejected", func(t *testing.T) {
		assert.False(t, r.Authorizes(NewProof(PoolNamespace, pool.Bump-1, asset[:]), pool.Address))
	})
	t.Run("wrong namespace is rejected", func(t *testing.T) {
		assert.False(t, r.Authorizes(NewProof(AccessNamespace, pool.Bump, asset[:]), pool.Address))
	})
	t.Run("other program cannot use the proof", func(t *testing.T) {
		assert.False(t, New(fill(0xBB)).Authorizes(proof, pool.Address))
	})
	t.Run("zero proof is rejected", func(t *testing.T) {
		assert.False(t, r.Authorizes(Proof{}, pool.Address))
	})
	t.Run("seeds are copies", func(t *testing.T) {
		seeds := proof.Seeds()
		seeds[1][0] ^= 0xFF
		assert.True(t, r.Authorizes(proof, pool.Address))
	})
}
