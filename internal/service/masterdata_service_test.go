package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository/memrepo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

// ── Products ──────────────────────────────────────────────────────────────────

func TestProductService_CreateConflictOnNaturalKey(t *testing.T) {
	svc := NewProductService(memrepo.NewProducts())
	ctx := context.Background()

	req := dto.ProductRequest{ItemID: "A", Style: "S1", Configuration: "250", ItemName: "Cola"}
	created, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Cola", created.ItemName)

	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, ErrConflict)

	req.Style = "S2"
	_, err = svc.Create(ctx, req)
	assert.NoError(t, err, "different style is a different product")
}

func TestProductService_UpdateAndDelete(t *testing.T) {
	svc := NewProductService(memrepo.NewProducts())
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.ProductRequest{ItemID: "A", ItemName: "Cola"})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	name := "  Cola Zero "
	updated, err := svc.Update(ctx, id, dto.UpdateProductRequest{ItemName: &name, NOB: intPtr(12)})
	require.NoError(t, err)
	assert.Equal(t, "Cola Zero", updated.ItemName)
	assert.Equal(t, 12, *updated.NOB)

	require.NoError(t, svc.Delete(ctx, id))
	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, id), ErrNotFound)
}

func TestProductService_BulkDeleteReportsPerItem(t *testing.T) {
	svc := NewProductService(memrepo.NewProducts())
	ctx := context.Background()
	a, err := svc.Create(ctx, dto.ProductRequest{ItemID: "A"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, dto.ProductRequest{ItemID: "B"})
	require.NoError(t, err)

	results := svc.BulkDelete(ctx, []string{a.ID, "not-a-uuid", b.ID})
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)
}

func TestProductService_ImportUpserts(t *testing.T) {
	repo := memrepo.NewProducts()
	repo.FailOn = map[string]error{"BROKEN": errors.New("write failed")}
	svc := NewProductService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.ProductRequest{ItemID: "A", ItemName: "Old"})
	require.NoError(t, err)

	resp, err := svc.Import(ctx, []dto.ProductRequest{
		{ItemID: "A", ItemName: "New"},
		{ItemID: "B", ItemName: "Fresh"},
		{ItemID: " "},
		{ItemID: "BROKEN"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, 1, resp.Updated)
	assert.Equal(t, 2, resp.Failed)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, "#2", resp.Errors[0].ID)
	assert.Equal(t, "BROKEN", resp.Errors[1].ID)

	a, err := repo.FindByNaturalKey(ctx, "A", "", "")
	require.NoError(t, err)
	assert.Equal(t, "New", a.ItemName)
}

func TestProductService_Stats(t *testing.T) {
	svc := NewProductService(memrepo.NewProducts())
	ctx := context.Background()
	for _, p := range []dto.ProductRequest{
		{ItemID: "A", BrandName: "Fizz", PackType: "PET", Configuration: "200"},
		{ItemID: "B", BrandName: "Fizz", PackType: "CAN", Configuration: "300"},
		{ItemID: "C", BrandName: "Pop", PackType: "PET", Configuration: "n/a"},
	} {
		_, err := svc.Create(ctx, p)
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)

	brands := map[string]dto.BrandStat{}
	for _, b := range stats.BrandStats {
		brands[b.Brand] = b
	}
	assert.EqualValues(t, 2, brands["Fizz"].Count)
	require.NotNil(t, brands["Fizz"].AvgMrp)
	assert.InDelta(t, 250.0, *brands["Fizz"].AvgMrp, 0.001)
	assert.Nil(t, brands["Pop"].AvgMrp, "non-numeric configuration is ignored")

	packs := map[string]int64{}
	for _, p := range stats.PackTypeStats {
		packs[p.PackType] = p.Count
	}
	assert.Equal(t, map[string]int64{"PET": 2, "CAN": 1}, packs)
}

// ── Distributors ──────────────────────────────────────────────────────────────

func TestDistributorService_CRUD(t *testing.T) {
	svc := NewDistributorService(memrepo.NewDistributors())
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.DistributorRequest{CustomerAccount: "C-1", OrganizationName: "Alpha"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, dto.DistributorRequest{CustomerAccount: "C-1"})
	assert.ErrorIs(t, err, ErrConflict)

	id := uuid.MustParse(created.ID)
	city := "Jaipur"
	updated, err := svc.Update(ctx, id, dto.UpdateDistributorRequest{AddressCity: &city})
	require.NoError(t, err)
	assert.Equal(t, "Jaipur", updated.AddressCity)
	assert.Equal(t, "Alpha", updated.OrganizationName)

	require.NoError(t, svc.Delete(ctx, id))
	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

// ── Dashboard ─────────────────────────────────────────────────────────────────

func TestDashboard_StatsAndActivities(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()

	a := f.create(t, groupScheme())
	b := f.create(t, groupScheme())
	f.create(t, groupScheme())
	_, err := f.svc.Verify(ctx, a.ID, f.verifier, "")
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, b.ID, f.verifier, "")
	require.NoError(t, err)

	dash := &dashboardService{schemes: f.schemes, now: func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }}
	stats, err := dash.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.DashboardStats{Total: 3, Verified: 1, Pending: 1, Rejected: 1, ActiveToday: 1}, *stats)

	dash.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	stats, err = dash.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.ActiveToday)

	acts, err := dash.Activities(ctx)
	require.NoError(t, err)
	require.Len(t, acts, 5)
	assert.Equal(t, "reject", acts[0].Type)
	assert.Equal(t, "Vic Verifier", acts[0].User)
	assert.Equal(t, b.SchemeCode, acts[0].SchemeID)
}

// ── Filter presets ────────────────────────────────────────────────────────────

func TestFilterPresets_OwnerOnlyDelete(t *testing.T) {
	svc := NewFilterPresetService(memrepo.NewFilterPresets())
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	p, err := svc.Create(ctx, owner, dto.CreateFilterPresetRequest{Name: "Pending", Filters: map[string]any{"status": "Pending Verification"}})
	require.NoError(t, err)

	mine, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := svc.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	id := uuid.MustParse(p.ID)
	assert.ErrorIs(t, svc.Delete(ctx, other, id), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, owner, id))
	assert.ErrorIs(t, svc.Delete(ctx, owner, id), ErrNotFound)
}
