package shippingmethods

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/netstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
)

func TestFee(t *testing.T) {
	method := models.ShippingMethod{
		BasePrice:  decimal.NewFromInt(30000),
		PricePerKg: decimal.NewFromInt(5000),
	}
	assert.True(t, decimal.NewFromInt(32500).Equal(Fee(method, decimal.RequireFromString("0.5"))))
	assert.True(t, decimal.NewFromInt(30000).Equal(Fee(method, decimal.Zero)))
}

func TestServiceCRUD(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.New(t)))
	require.NoError(t, err)
	ctx := context.Background()

	express, err := svc.Create(ctx, Input{Name: "Express", BasePrice: decimal.NewFromInt(50000), PricePerKg: decimal.NewFromInt(8000), EstimatedDays: 1})
	require.NoError(t, err)
	assert.True(t, express.IsActive)

	_, err = svc.Create(ctx, Input{Name: "Standard", BasePrice: decimal.NewFromInt(30000), PricePerKg: decimal.NewFromInt(5000), EstimatedDays: 3})
	require.NoError(t, err)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Standard", active[0].Name)

	updated, err := svc.Update(ctx, express.ID, Input{Name: "Express 24h", BasePrice: decimal.NewFromInt(55000), PricePerKg: decimal.NewFromInt(8000), EstimatedDays: 1})
	require.NoError(t, err)
	assert.Equal(t, "Express 24h", updated.Name)

	require.NoError(t, svc.Deactivate(ctx, express.ID))
	active, err = svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.Create(ctx, Input{Name: "Broken", BasePrice: decimal.NewFromInt(-1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = svc.Deactivate(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
