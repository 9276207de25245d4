package locker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenvault/internal/vault/service"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

// passthrough runs fn without a store or transferer.
type passthrough struct{}

func (passthrough) RunInTx(ctx context.Context, _ id.Address, fn func(context.Context, service.Store, service.Transferer) error) error {
	return fn(ctx, nil, nil)
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func key(b byte) id.Address {
	var a id.Address
	a[0] = b
	return a
}

func TestLocker_RunsInnerAndReleases(t *testing.T) {
	mr, client := setupRedis(t)
	l, err := New(client, passthrough{}, DefaultOptions(), nil)
	require.NoError(t, err)

	executed := false
	err = l.RunInTx(context.Background(), key(1), func(context.Context, service.Store, service.Transferer) error {
		executed = true
		assert.True(t, mr.Exists(defaultKeyPrefix+key(1).String()), "lock is held while fn runs")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, executed)
	assert.False(t, mr.Exists(defaultKeyPrefix+key(1).String()))
}

func TestLocker_SerializesSameKey(t *testing.T) {
	_, client := setupRedis(t)
	l, err := New(client, passthrough{}, DefaultOptions(), nil)
	require.NoError(t, err)

	var (
		inside  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.RunInTx(context.Background(), key(2), func(context.Context, service.Store, service.Transferer) error {
				if inside.Add(1) > 1 {
					overlap.Store(true)
				}
				time.Sleep(5 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.False(t, overlap.Load())
}

func TestLocker_BusyKeyIsUnavailable(t *testing.T) {
	_, client := setupRedis(t)
	opts := DefaultOptions()
	opts.Tries = 1
	l, err := New(client, passthrough{}, opts, nil)
	require.NoError(t, err)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- l.RunInTx(context.Background(), key(3), func(context.Context, service.Store, service.Transferer) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err = l.RunInTx(context.Background(), key(3), func(context.Context, service.Store, service.Transferer) error {
		t.Fatal("fn must not run while the key is locked")
		return nil
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable), "got %v", err)

	// Other keys are not blocked.
	err = l.RunInTx(context.Background(), key(4), func(context.Context, service.Store, service.Transferer) error {
		return nil
	})
	assert.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
}

func TestLocker_PropagatesInnerError(t *testing.T) {
	_, client := setupRedis(t)
	l, err := New(client, passthrough{}, DefaultOptions(), nil)
	require.NoError(t, err)

	want := dErrors.New(dErrors.CodeNotAuthorized, "requester does not own the access record")
	err = l.RunInTx(context.Background(), key(5), func(context.Context, service.Store, service.Transferer) error {
		return want
	})
	assert.Same(t, want, err)
}

func TestNew_Validation(t *testing.T) {
	_, client := setupRedis(t)

	_, err := New(nil, passthrough{}, DefaultOptions(), nil)
	assert.ErrorContains(t, err, "redis client is required")

	opts := DefaultOptions()
	opts.Tries = 0
	_, err = New(client, passthrough{}, opts, nil)
	assert.ErrorContains(t, err, "lock tries must be at least 1")
}
