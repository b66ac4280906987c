package service

import (
	"context"
	"testing"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_GroupSchemeRowPerCodeAndProduct(t *testing.T) {
	f := newSchemeFixture(t)
	req := groupScheme(
		dto.ProductInput{"itemCode": "A-1", "itemName": "Cola", "Style": "S1", "mrp": "250", "discountPrice": 1.5},
		dto.ProductInput{"itemCode": "B-2", "itemName": "Lime"},
	)
	req.Distributors = []string{"GRP-NORTH", "GRP-SOUTH"}
	created := f.create(t, req)

	code, rows, err := f.svc.Export(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.SchemeCode, code)
	require.Len(t, rows, 4)

	first := rows[0]
	assert.Equal(t, created.SchemeCode, first.SchemeCode)
	assert.Equal(t, "01-03-2024", first.StartingDate)
	assert.Equal(t, "31-03-2024", first.EndingDate)
	assert.Equal(t, "GRP-NORTH", first.SalesCode)
	assert.Empty(t, first.SalesDescription)
	assert.Equal(t, "A-1", first.Code)
	assert.Equal(t, "250", first.ConfigID)
	assert.Equal(t, "S1", first.Style)
	assert.Equal(t, "DIS_PRI_VL", first.TaxChargeCode)
	assert.Equal(t, "brly", first.Company)
	assert.True(t, decimal.RequireFromString("1.5").Equal(first.LineDiscount))
	assert.Len(t, first.Values(), len(dto.ExportColumns))

	assert.Equal(t, "B-2", rows[1].Code)
	assert.Equal(t, "GRP-SOUTH", rows[2].SalesCode)
}

func TestExport_IndividualUsesAccountAndSkipsMissing(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()
	d1 := f.seedDistributor(t, "C-100", "Alpha Traders")
	d2 := f.seedDistributor(t, "C-200", "Beta Stores")

	req := groupScheme()
	req.DistributorType = model.DistributorIndividual
	req.Distributors = []string{d1.ID.String(), d2.ID.String()}
	created := f.create(t, req)

	require.NoError(t, f.distributors.Delete(ctx, d2.ID))

	_, rows, err := f.svc.Export(ctx, created.SchemeCode)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "C-100", rows[0].SalesCode)
	assert.Equal(t, "Alpha Traders", rows[0].SalesDescription)
}

func TestExport_AllDistributorsDeletedSkipsScheme(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()
	d := f.seedDistributor(t, "C-100", "Alpha Traders")

	req := groupScheme()
	req.DistributorType = model.DistributorIndividual
	req.Distributors = []string{d.ID.String()}
	orphan := f.create(t, req)
	f.create(t, groupScheme())

	require.NoError(t, f.distributors.Delete(ctx, d.ID))

	_, rows, err := f.svc.Export(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = f.svc.ExportByDate(ctx, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "GRP-NORTH", rows[0].SalesCode)
}

func TestExport_NoDistributorsStillOneRowPerProduct(t *testing.T) {
	f := newSchemeFixture(t)
	req := groupScheme()
	req.Distributors = nil
	created := f.create(t, req)

	_, rows, err := f.svc.Export(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].SalesCode)
}

func TestExportByDate(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()

	march := f.create(t, groupScheme())
	april := groupScheme()
	april.StartDate, april.EndDate = "2024-04-01", "2024-04-30"
	f.create(t, april)

	rows, err := f.svc.ExportByDate(ctx, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, march.SchemeCode, rows[0].SchemeCode)

	rows, err = f.svc.ExportByDate(ctx, "2024-01-01", "2024-12-31")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = f.svc.ExportByDate(ctx, "2025-01-01", "2025-01-31")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.ExportByDate(ctx, "", "2024-03-31")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.ExportByDate(ctx, "March", "2024-03-31")
	assert.ErrorIs(t, err, ErrValidation)
}
