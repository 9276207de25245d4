package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenvault/internal/platform/config"
)

func TestNew_EmptyURLDisablesRedis(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNew_ConnectsAndPings(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr(), PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.Health(context.Background()))
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "not a url"})
	assert.ErrorContains(t, err, "parse redis URL")
}

func TestOptions_ConfigOverridesURL(t *testing.T) {
	opts, err := options(config.RedisConfig{
		URL:         "redis://localhost:6379/2?pool_size=3&dial_timeout=1s",
		PoolSize:    9,
		DialTimeout: 4 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 9, opts.PoolSize)
	assert.Equal(t, 4*time.Second, opts.DialTimeout)
}

func TestOptions_ZeroConfigKeepsURLValues(t *testing.T) {
	opts, err := options(config.RedisConfig{URL: "redis://localhost:6379/0?pool_size=3"})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.PoolSize)
}
