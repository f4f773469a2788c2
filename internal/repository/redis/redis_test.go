package redis

import (
	"context"
	"testing"
	"time"

	"MarsAI_Festival/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestInitPingClose(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	require.NoError(t, Init(Options{Addr: mr.Addr(), PoolSize: 4, MinIdleConns: 8}))
	assert.Equal(t, 4, Client.Options().PoolSize)
	assert.Equal(t, 0, Client.Options().MinIdleConns)
	assert.Equal(t, 2*time.Second, Client.Options().ReadTimeout)
	require.NoError(t, Ping(ctx))

	require.NoError(t, Close())
	assert.Nil(t, Client)
	assert.ErrorIs(t, Ping(ctx), redis.ErrClosed)
	assert.NoError(t, Close())
}

func TestInitUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	err := Init(Options{Addr: addr, DialTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
	_ = Close()
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, rdb := testClient(t)
	repo := NewSessionRepository(rdb, time.Minute)

	_, err := repo.GetUserToken(ctx, 1)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, repo.AddUserToken(ctx, 1, "a"))
	require.NoError(t, repo.AddUserToken(ctx, 1, "b"))
	tok, err := repo.GetUserToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", tok)
	assert.Equal(t, time.Minute, mr.TTL("login:user:token:1"))

	require.NoError(t, repo.DeleteUserToken(ctx, 1))
	_, err = repo.GetUserToken(ctx, 1)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestSessionSlidingExpiry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := testClient(t)
	repo := NewSessionRepository(rdb, time.Minute)

	require.NoError(t, repo.AddUserToken(ctx, 7, "tok"))
	mr.FastForward(50 * time.Second)
	require.NoError(t, repo.ExtendUserToken(ctx, 7))
	assert.Equal(t, time.Minute, mr.TTL("login:user:token:7"))

	mr.FastForward(50 * time.Second)
	tok, err := repo.GetUserToken(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	mr.FastForward(11 * time.Second)
	_, err = repo.GetUserToken(ctx, 7)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestSessionDefaultTTL(t *testing.T) {
	_, rdb := testClient(t)
	assert.Equal(t, DefaultUserTokenExpire, NewSessionRepository(rdb, 0).TTL)
}

func TestSessionRedisDown(t *testing.T) {
	ctx := context.Background()
	mr, rdb := testClient(t)
	repo := NewSessionRepository(rdb, time.Minute)
	mr.Close()

	assert.ErrorIs(t, repo.AddUserToken(ctx, 1, "a"), ErrRedisUnavailable)
	_, err := repo.GetUserToken(ctx, 1)
	assert.ErrorIs(t, err, ErrRedisUnavailable)
	assert.ErrorIs(t, repo.ExtendUserToken(ctx, 1), ErrExtendFailed)
	assert.ErrorIs(t, repo.DeleteUserToken(ctx, 1), ErrTokenDeleted)
}

func TestRatingCacheNilAverage(t *testing.T) {
	ctx := context.Background()
	mr, rdb := testClient(t)
	repo := NewRatingCacheRepository(rdb)

	_, hit, err := repo.Get(ctx, 9)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, repo.Set(ctx, 9, model.RatingSummary{Count: 0}))
	assert.Equal(t, "", mr.HGet("rating:summary:film:9", "avg"))
	assert.Equal(t, "0", mr.HGet("rating:summary:film:9", "count"))
	s, hit, err := repo.Get(ctx, 9)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Nil(t, s.Average)
	assert.Equal(t, int64(0), s.Count)
}

func TestRatingCacheZeroIsNotNil(t *testing.T) {
	ctx := context.Background()
	_, rdb := testClient(t)
	repo := NewRatingCacheRepository(rdb)

	zero := 0.0
	require.NoError(t, repo.Set(ctx, 3, model.RatingSummary{Average: &zero, Count: 1}))
	s, hit, err := repo.Get(ctx, 3)
	require.NoError(t, err)
	require.True(t, hit)
	require.NotNil(t, s.Average)
	assert.Equal(t, 0.0, *s.Average)

	avg := 11.0 / 3
	require.NoError(t, repo.Set(ctx, 3, model.RatingSummary{Average: &avg, Count: 3}))
	s, _, err = repo.Get(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, s.Average)
	assert.Equal(t, avg, *s.Average)
	assert.Equal(t, int64(3), s.Count)
}

func TestRatingCacheTTL(t *testing.T) {
	ctx := context.Background()
	mr, rdb := testClient(t)
	repo := NewRatingCacheRepository(rdb)

	require.NoError(t, repo.Set(ctx, 5, model.RatingSummary{Count: 2}))
	assert.Equal(t, RatingSummaryTTL, mr.TTL("rating:summary:film:5"))

	mr.FastForward(RatingSummaryTTL + time.Second)
	_, hit, err := repo.Get(ctx, 5)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRatingCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := testClient(t)
	repo := NewRatingCacheRepository(rdb)

	mr.HSet("rating:summary:film:4", "count", "x")
	_, hit, err := repo.Get(ctx, 4)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestRatingCacheDelayedSecondDelete(t *testing.T) {
	ctx := context.Background()
	mr, rdb := testClient(t)
	repo := NewRatingCacheRepository(rdb)
	key := "rating:summary:film:8"

	require.NoError(t, repo.Set(ctx, 8, model.RatingSummary{Count: 1}))
	require.NoError(t, repo.Invalidate(ctx, 8, 100*time.Millisecond))
	assert.False(t, mr.Exists(key))

	// 并发读在两次删除之间回填了旧值
	require.NoError(t, repo.Set(ctx, 8, model.RatingSummary{Count: 1}))
	assert.True(t, mr.Exists(key))

	assert.Eventually(t, func() bool { return !mr.Exists(key) }, 2*time.Second, 10*time.Millisecond)
	_, hit, err := repo.Get(ctx, 8)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRatingCacheInvalidateWithoutDelay(t *testing.T) {
	ctx := context.Background()
	mr, rdb := testClient(t)
	repo := NewRatingCacheRepository(rdb)

	require.NoError(t, repo.Invalidate(ctx, 1))
	require.NoError(t, repo.Set(ctx, 1, model.RatingSummary{Count: 1}))
	require.NoError(t, repo.Invalidate(ctx, 1))
	assert.False(t, mr.Exists("rating:summary:film:1"))

	require.NoError(t, repo.Set(ctx, 1, model.RatingSummary{Count: 2}))
	time.Sleep(50 * time.Millisecond)
	assert.True(t, mr.Exists("rating:summary:film:1"))
}
