package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T) (*RedisRepository, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return NewRedisRepository(client, "test:session:"), m
}

func TestRedisRepository_CreateGetDelete(t *testing.T) {
	repo, _ := newRedisRepo(t)
	ctx := context.Background()

	s := &Session{
		RefreshToken: "r1",
		Sub:          "sub-1",
		ExpiresAt:    time.Now().UTC().Add(5 * time.Second),
	}
	require.NoError(t, repo.Create(ctx, s))
	require.False(t, s.CreatedAt.IsZero(), "Create should stamp CreatedAt")

	got, err := repo.GetByRefresh(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "sub-1", got.Sub)

	require.NoError(t, repo.DeleteByRefresh(ctx, "r1"))
	got, err = repo.GetByRefresh(ctx, "r1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisRepository_TTLExpiry(t *testing.T) {
	repo, m := newRedisRepo(t)
	ctx := context.Background()

	s := &Session{
		RefreshToken: "r2",
		Sub:          "sub-2",
		ExpiresAt:    time.Now().UTC().Add(time.Second),
	}
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.GetByRefresh(ctx, "r2")
	require.NoError(t, err)
	require.NotNil(t, got)

	m.FastForward(2 * time.Second)

	got, err = repo.GetByRefresh(ctx, "r2")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisRepository_UnknownTokenIsNil(t *testing.T) {
	repo, _ := newRedisRepo(t)
	got, err := repo.GetByRefresh(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, got)
}
