package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
	"github.com/angelmondragon/netstore-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.New(t)
	svc, err := NewService(NewRepository(conn), nil)
	require.NoError(t, err)
	return svc, conn
}

func TestCreateRequiresDeliveredOrder(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.SeedUser(t, conn, "reviewer@example.com")
	product, item := dbtest.SeedCatalog(t, conn, "hap-ac3", "2500000", 5, "0.4")
	ctx := context.Background()
	input := CreateInput{ProductID: product.ID, Rating: 5}

	_, err := svc.Create(ctx, user.ID, input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	dbtest.SeedOrder(t, conn, user.ID, "ORD202601010001", enums.OrderStatusShipping, item)
	_, err = svc.Create(ctx, user.ID, input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	delivered := dbtest.SeedOrder(t, conn, user.ID, "ORD202601010002", enums.OrderStatusDelivered, item)
	title := "  Solid AP  "
	input.Title = &title
	review, err := svc.Create(ctx, user.ID, input)
	require.NoError(t, err)
	assert.False(t, review.IsApproved)
	assert.Equal(t, delivered.ID, review.OrderID)
	require.NotNil(t, review.Title)
	assert.Equal(t, "Solid AP", *review.Title)
}

func TestCreateRejectsSecondReview(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.SeedUser(t, conn, "reviewer@example.com")
	product, item := dbtest.SeedCatalog(t, conn, "crs", "2500000", 5, "0.4")
	dbtest.SeedOrder(t, conn, user.ID, "ORD202601010001", enums.OrderStatusCompleted, item)
	ctx := context.Background()

	_, err := svc.Create(ctx, user.ID, CreateInput{ProductID: product.ID, Rating: 4})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.ID, CreateInput{ProductID: product.ID, Rating: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	var count int64
	require.NoError(t, conn.Model(&models.ProductReview{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateValidatesInput(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.SeedUser(t, conn, "reviewer@example.com")
	ctx := context.Background()

	_, err := svc.Create(ctx, user.ID, CreateInput{ProductID: uuid.New(), Rating: 6})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, user.ID, CreateInput{ProductID: uuid.New(), Rating: 3})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestModerationFlow(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.SeedUser(t, conn, "reviewer@example.com")
	admin := dbtest.SeedUser(t, conn, "admin@example.com")
	product, item := dbtest.SeedCatalog(t, conn, "mod", "2500000", 5, "0.4")
	dbtest.SeedOrder(t, conn, user.ID, "ORD202601010001", enums.OrderStatusDelivered, item)
	ctx := context.Background()
	params := pagination.Params{Page: 1, Limit: 10}

	review, err := svc.Create(ctx, user.ID, CreateInput{ProductID: product.ID, Rating: 4})
	require.NoError(t, err)

	public, err := svc.ListForProduct(ctx, product.ID, params)
	require.NoError(t, err)
	assert.Empty(t, public.Data)

	mine, err := svc.ListMine(ctx, user.ID, params)
	require.NoError(t, err)
	require.Len(t, mine.Data, 1)

	pending := false
	queue, err := svc.AdminList(ctx, params, ListFilters{IsApproved: &pending})
	require.NoError(t, err)
	require.Len(t, queue.Data, 1)

	approved, err := svc.Approve(ctx, admin.ID, review.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	assert.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, user.Username, approved.Reviewer)

	public, err = svc.ListForProduct(ctx, product.ID, params)
	require.NoError(t, err)
	require.Len(t, public.Data, 1)
	assert.Equal(t, int64(1), public.Pagination.Total)

	require.NoError(t, svc.Delete(ctx, review.ID))
	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, review.ID), pkgerrors.CodeNotFound))

	_, err = svc.Approve(ctx, admin.ID, review.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
