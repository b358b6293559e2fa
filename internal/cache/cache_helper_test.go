package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type cachedCourse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func TestCacheHelper_SetGet(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "course:")
	ctx := context.Background()

	want := cachedCourse{ID: 7, Title: "Soil Science Basics"}
	require.NoError(t, helper.Set(ctx, "id:7", want, time.Minute))

	var got cachedCourse
	require.NoError(t, helper.Get(ctx, "id:7", &got))
	assert.Equal(t, want, got)
}

func TestCacheHelper_GetMissing(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "course:")

	var got cachedCourse
	err := helper.Get(context.Background(), "id:404", &got)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "course:")
	ctx := context.Background()

	assert.NoError(t, helper.Set(ctx, "id:1", cachedCourse{ID: 1}, time.Minute))
	assert.NoError(t, helper.Delete(ctx, "id:1"))

	var got cachedCourse
	assert.ErrorIs(t, helper.Get(ctx, "id:1", &got), ErrCacheNotAvailable)
}

func TestCacheHelper_Delete(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "module:")
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "id:1", cachedCourse{ID: 1}, time.Minute))
	require.NoError(t, helper.Set(ctx, "id:2", cachedCourse{ID: 2}, time.Minute))
	require.NoError(t, helper.Delete(ctx, "id:1", "id:2"))

	exists, err := helper.Exists(ctx, "id:1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "progress:")
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "course:3:student:u1", cachedCourse{ID: 3}, time.Minute))
	require.NoError(t, helper.Set(ctx, "course:3:student:u2", cachedCourse{ID: 3}, time.Minute))
	require.NoError(t, helper.Set(ctx, "course:4:student:u1", cachedCourse{ID: 4}, time.Minute))

	require.NoError(t, helper.InvalidatePattern(ctx, "course:3:*"))

	exists, err := helper.Exists(ctx, "course:3:student:u1")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = helper.Exists(ctx, "course:4:student:u1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "course:")
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return cachedCourse{ID: 9, Title: "Water Harvesting"}, nil
	}

	var got cachedCourse
	require.NoError(t, helper.CacheOrExecute(ctx, "id:9", &got, time.Minute, fetch))
	assert.Equal(t, uint(9), got.ID)
	assert.Equal(t, 1, calls)

	// Give the async Set a moment to land, then verify the cached path.
	require.Eventually(t, func() bool {
		ok, err := helper.Exists(ctx, "id:9")
		return err == nil && ok
	}, time.Second, 10*time.Millisecond)

	var again cachedCourse
	require.NoError(t, helper.CacheOrExecute(ctx, "id:9", &again, time.Minute, fetch))
	assert.Equal(t, 1, calls)
}

func TestCacheManager_HealthCheck(t *testing.T) {
	client := newTestClient(t)
	cm := NewCacheManager(client)
	assert.NoError(t, cm.HealthCheck(context.Background()))

	nilCM := NewCacheManager(nil)
	assert.ErrorIs(t, nilCM.HealthCheck(context.Background()), ErrCacheNotAvailable)
}
