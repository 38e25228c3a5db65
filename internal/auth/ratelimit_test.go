package auth

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinity-cafe/cafe-backend/pkg/config"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

type fakeStore struct {
	counts map[string]int64
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{counts: map[string]int64{}}
}

func (f *fakeStore) RateLimitKey(scope, id string) string {
	return fmt.Sprintf("test:rate_limit:%s:%s", scope, id)
}

func (f *fakeStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	if f.err != nil {
		return f.err
	}
	for _, key := range keys {
		delete(f.counts, key)
	}
	return nil
}

func testLimiterConfig() config.AuthRateLimitConfig {
	return config.AuthRateLimitConfig{
		LoginWindow:        time.Minute,
		LoginUsernameLimit: 3,
		LoginIPLimit:       5,
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "auth-test", Output: io.Discard})
}

func TestLimiterBlocksUsernameAfterLimit(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	limiter := NewLoginLimiter(store, testLimiterConfig(), testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Allow(ctx, "barista", "10.0.0.1"))
	}

	err := limiter.Allow(ctx, "barista", "10.0.0.1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeRateLimit, pkgerrors.As(err).Code())

	// A different username from the same IP still gets through.
	require.NoError(t, limiter.Allow(ctx, "kitchen", "10.0.0.1"))
}

func TestLimiterBlocksIPAcrossUsernames(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	limiter := NewLoginLimiter(store, testLimiterConfig(), testLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Allow(ctx, fmt.Sprintf("user%d", i), "10.0.0.9"))
	}

	err := limiter.Allow(ctx, "fresh-user", "10.0.0.9")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeRateLimit, pkgerrors.As(err).Code())
}

func TestLimiterUsernameIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	limiter := NewLoginLimiter(store, testLimiterConfig(), testLogger())
	ctx := context.Background()

	require.NoError(t, limiter.Allow(ctx, "Barista", ""))
	require.NoError(t, limiter.Allow(ctx, "BARISTA", ""))
	require.NoError(t, limiter.Allow(ctx, "barista", ""))

	err := limiter.Allow(ctx, "bArIsTa", "")
	require.Error(t, err)
}

func TestLimiterResetClearsUsernameCounter(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	limiter := NewLoginLimiter(store, testLimiterConfig(), testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Allow(ctx, "barista", ""))
	}
	limiter.Reset(ctx, "barista")

	require.NoError(t, limiter.Allow(ctx, "barista", ""))
}

func TestLimiterFailsOpenWhenStoreIsDown(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.err = fmt.Errorf("connection refused")
	limiter := NewLoginLimiter(store, testLimiterConfig(), testLogger())

	require.NoError(t, limiter.Allow(context.Background(), "barista", "10.0.0.1"))
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	t.Parallel()

	var limiter *LoginLimiter
	require.NoError(t, limiter.Allow(context.Background(), "anyone", "anywhere"))
}
