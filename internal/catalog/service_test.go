package catalog

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/netstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
)

type memoryCache struct {
	mu     sync.Mutex
	values map[string]string
	gets   int
	hits   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.values[key]
	if !ok {
		return "", redislib.Nil
	}
	c.hits++
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		c.values[key] = string(v)
	case string:
		c.values[key] = v
	}
	return nil
}

func (c *memoryCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

func (c *memoryCache) CacheKey(parts ...string) string {
	return "test:cache:" + strings.Join(parts, ":")
}

func newTestService(t *testing.T) (Service, *memoryCache, *Repository) {
	t.Helper()
	conn := dbtest.New(t)
	repo := NewRepository(conn)
	cache := newMemoryCache()
	svc, err := NewService(ServiceParams{Repo: repo, Cache: cache})
	require.NoError(t, err)
	return svc, cache, repo
}

func TestCategoryTreeIsCachedAndBustedOnWrite(t *testing.T) {
	svc, cache, _ := newTestService(t)
	ctx := context.Background()

	root, err := svc.CreateCategory(ctx, CategoryInput{Name: "Thiết bị mạng"})
	require.NoError(t, err)
	assert.Equal(t, "thiet-bi-mang", root.Slug)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Router", ParentID: &root.ID})
	require.NoError(t, err)

	tree, err := svc.ListCategories(ctx, false)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "router", tree[0].Children[0].Slug)

	_, err = svc.ListCategories(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Switch", ParentID: &root.ID})
	require.NoError(t, err)

	tree, err = svc.ListCategories(ctx, false)
	require.NoError(t, err)
	assert.Len(t, tree[0].Children, 2)
	assert.Equal(t, 1, cache.hits)
}

func TestCreateCategoryRejectsDuplicateSlug(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, CategoryInput{Name: "Access Point"})
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "access point"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCategoryNestingIsOneLevel(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	root, err := svc.CreateCategory(ctx, CategoryInput{Name: "Root"})
	require.NoError(t, err)
	child, err := svc.CreateCategory(ctx, CategoryInput{Name: "Child", ParentID: &root.ID})
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Grandchild", ParentID: &child.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateCategory(ctx, root.ID, CategoryInput{Name: "Root", ParentID: &root.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missing := uuid.New()
	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Orphan", ParentID: &missing})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestInactiveCategoryHiddenFromPublicReads(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inactive := false
	cat, err := svc.CreateCategory(ctx, CategoryInput{Name: "Legacy", IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.GetCategory(ctx, cat.ID, false)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err := svc.GetCategory(ctx, cat.ID, true)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	public, err := svc.ListCategories(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, public)
}

func TestDeleteCategoryInUseConflicts(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()

	product, _ := dbtest.SeedCatalog(t, repo.Conn(), "rb5009", "4500000", 3, "1.2")

	err := svc.DeleteCategory(ctx, product.CategoryID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	empty, err := svc.CreateCategory(ctx, CategoryInput{Name: "Empty"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCategory(ctx, empty.ID))

	err = svc.DeleteCategory(ctx, empty.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestBrandLifecycle(t *testing.T) {
	svc, cache, repo := newTestService(t)
	ctx := context.Background()

	brand, err := svc.CreateBrand(ctx, BrandInput{Name: "MikroTik"})
	require.NoError(t, err)
	assert.Equal(t, "mikrotik", brand.Slug)

	list, err := svc.ListBrands(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 1)

	renamed, err := svc.UpdateBrand(ctx, brand.ID, BrandInput{Name: "MikroTik SIA"})
	require.NoError(t, err)
	assert.Equal(t, "mikrotik-sia", renamed.Slug)

	list, err = svc.ListBrands(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "MikroTik SIA", list[0].Name)
	assert.Equal(t, 0, cache.hits)

	_, err = svc.CreateBrand(ctx, BrandInput{Name: "mikrotik sia"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.UpdateBrand(ctx, uuid.New(), BrandInput{Name: "Ghost"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	product, _ := dbtest.SeedCatalog(t, repo.Conn(), "hap-ax3", "3200000", 5, "0.5")
	err = svc.DeleteBrand(ctx, *product.BrandID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, svc.DeleteBrand(ctx, brand.ID))
}

func TestServiceWorksWithoutCache(t *testing.T) {
	conn := dbtest.New(t)
	require.NoError(t, conn.Create(&models.Brand{Name: "TP-Link", Slug: "tp-link", IsActive: true}).Error)

	svc, err := NewService(ServiceParams{Repo: NewRepository(conn)})
	require.NoError(t, err)

	brands, err := svc.ListBrands(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, brands, 1)
}
