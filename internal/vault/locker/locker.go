// Package locker serializes vault units of work across processes. Each key
// is guarded by a redsync mutex in Redis before the wrapped VaultTx runs, so
// replicas sharing one database still see a single writer per access record.
package locker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"tokenvault/internal/vault/service"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

const defaultKeyPrefix = "tokenvault:vault:lock:"

// Options tune lock acquisition. Expiry must exceed the wrapped
// transaction's timeout.
type Options struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
	KeyPrefix  string
}

// DefaultOptions suits request-path locking.
func DefaultOptions() Options {
	return Options{
		Expiry:     10 * time.Second,
		Tries:      20,
		RetryDelay: 50 * time.Millisecond,
		KeyPrefix:  defaultKeyPrefix,
	}
}

// Locker decorates a service.VaultTx with a distributed lock per key.
type Locker struct {
	inner  service.VaultTx
	rs     *redsync.Redsync
	opts   Options
	logger *slog.Logger
}

// New wraps inner. A nil logger discards.
func New(client redis.UniversalClient, inner service.VaultTx, opts Options, logger *slog.Logger) (*Locker, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if inner == nil {
		return nil, errors.New("vault transaction runner is required")
	}
	if opts.Expiry <= 0 {
		return nil, errors.New("lock expiry must be greater than 0")
	}
	if opts.Tries < 1 {
		return nil, errors.New("lock tries must be at least 1")
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Locker{
		inner:  inner,
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}, nil
}

func (l *Locker) RunInTx(ctx context.Context, key id.Address, fn func(ctx context.Context, store service.Store, tokens service.Transferer) error) error {
	lockKey := l.opts.KeyPrefix + key.String()
	mutex := l.rs.NewMutex(lockKey,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if ctx.Err() != nil {
			return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "transaction aborted: context cancelled")
		}
		if errors.Is(err, redsync.ErrFailed) {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "vault record is busy, retry later")
		}
		return dErrors.Wrap(fmt.Errorf("acquire lock %s: %w", lockKey, err), dErrors.CodeUnavailable, "lock service unavailable")
	}
	defer func() {
		// Release even when the request context is already done.
		ok, err := mutex.UnlockContext(context.WithoutCancel(ctx))
		if err != nil || !ok {
			l.logger.WarnContext(ctx, "failed to release vault lock", "lock_key", lockKey, "unlock_ok", ok, "error", err)
		}
	}()

	return l.inner.RunInTx(ctx, key, fn)
}
