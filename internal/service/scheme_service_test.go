package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/config"
	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository/memrepo"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyActions(resp *dto.SchemeResponse) []string {
	out := make([]string, len(resp.History))
	for i, h := range resp.History {
		out[i] = h.Action
	}
	return out
}

// ── Create ────────────────────────────────────────────────────────────────────

func TestCreate_GeneratesCodeAndSeedsHistory(t *testing.T) {
	f := newSchemeFixture(t)
	resp := f.create(t, groupScheme())

	assert.Regexp(t, schemeCodeRe, resp.SchemeCode)
	assert.Equal(t, model.StatusPendingVerification, resp.Status)
	require.NotNil(t, resp.CreatedBy)
	assert.Equal(t, f.creator.ID.String(), resp.CreatedBy.ID)
	assert.Nil(t, resp.VerifiedBy)
	assert.Equal(t, []string{model.ActionCreated}, historyActions(resp))
	assert.Equal(t, "Scheme created", resp.History[0].Notes)
	assert.Equal(t, []string{"GRP-NORTH"}, resp.Distributors)

	// default offset is zero in the test config
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), resp.StartDate)
}

func TestCreate_AppliesConfiguredDayOffset(t *testing.T) {
	f := newSchemeFixture(t, func(c *config.Config) { c.SchemeDateDayOffset = 1 })
	resp := f.create(t, groupScheme())
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), resp.StartDate)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), resp.EndDate)
}

func TestCreate_ProductRoundTrip(t *testing.T) {
	f := newSchemeFixture(t)
	products := []dto.ProductInput{
		{"itemCode": "A-1", "itemName": "Cola", "nob": 24.0, "mrp": "250", "discountPrice": 1.25},
		{"ITEMID": "B-2", "ITEMNAME": "Lime", "Style": "S2", "discountPrice": "0.5"},
		{"itemCode": "C-3", "customFields": map[string]any{"tier": "gold"}},
	}
	created := f.create(t, groupScheme(products...))

	got, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, got.Products, 3)

	assert.Equal(t, []string{"A-1", "B-2", "C-3"}, []string{got.Products[0].ItemID, got.Products[1].ItemID, got.Products[2].ItemID})
	assert.Equal(t, "250", got.Products[0].Configuration)
	require.NotNil(t, got.Products[0].NOB)
	assert.Equal(t, 24, *got.Products[0].NOB)
	assert.True(t, decimal.RequireFromString("1.25").Equal(got.Products[0].DiscountPrice))
	assert.Equal(t, "S2", got.Products[1].Style)
	assert.True(t, decimal.Zero.Equal(got.Products[2].DiscountPrice))
	assert.Equal(t, "gold", got.Products[2].CustomFields["tier"])
	assert.Empty(t, got.Products[1].CustomFields)
}

func TestCreate_SnapshotSurvivesMasterProductEdit(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()
	products := NewProductService(memrepo.NewProducts())

	master, err := products.Create(ctx, dto.ProductRequest{
		ItemID: "A-1", ItemName: "Cola 250ml", Style: "S1", Configuration: "250", NOB: intPtr(24),
	})
	require.NoError(t, err)

	created := f.create(t, groupScheme(dto.ProductInput{
		"ITEMID": master.ItemID, "ITEMNAME": master.ItemName, "Style": master.Style,
		"Configuration": master.Configuration, "NOB": 24, "discountPrice": 2,
	}))

	id, err := uuid.Parse(master.ID)
	require.NoError(t, err)
	renamed, style := "Cola Zero 300ml", "S9"
	_, err = products.Update(ctx, id, dto.UpdateProductRequest{ItemName: &renamed, Style: &style, NOB: intPtr(12)})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Products, 1)
	snap := got.Products[0]
	assert.Equal(t, "A-1", snap.ItemID)
	assert.Equal(t, "Cola 250ml", snap.ItemName)
	assert.Equal(t, "S1", snap.Style)
	require.NotNil(t, snap.NOB)
	assert.Equal(t, 24, *snap.NOB)
}

func TestCreate_ClientCode(t *testing.T) {
	f := newSchemeFixture(t)
	req := groupScheme()
	req.SchemeCode = "SUMMER-24"
	resp := f.create(t, req)
	assert.Equal(t, "SUMMER-24", resp.SchemeCode)

	_, err := f.svc.Create(context.Background(), f.creator, req)
	assert.ErrorIs(t, err, ErrValidation, "duplicate code")
}

func TestCreate_Validation(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()

	req := groupScheme()
	req.EndDate = "2024-02-01"
	_, err := f.svc.Create(ctx, f.creator, req)
	assert.ErrorIs(t, err, ErrValidation)

	req = groupScheme(dto.ProductInput{"itemName": "no id"})
	_, err = f.svc.Create(ctx, f.creator, req)
	assert.ErrorIs(t, err, ErrValidation)

	req = groupScheme()
	req.Products = nil
	_, err = f.svc.Create(ctx, f.creator, req)
	assert.ErrorIs(t, err, ErrValidation)

	req = groupScheme()
	req.DistributorType = model.DistributorIndividual
	req.Distributors = []string{uuid.NewString()}
	_, err = f.svc.Create(ctx, f.creator, req)
	assert.ErrorIs(t, err, ErrValidation, "unknown distributor id")

	list, err := f.svc.List(ctx, url.Values{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestCreate_RequiresCreatorOrAdmin(t *testing.T) {
	f := newSchemeFixture(t)
	for _, a := range []Actor{f.verifier, f.viewer} {
		_, err := f.svc.Create(context.Background(), a, groupScheme())
		assert.ErrorIs(t, err, ErrForbidden, a.Role)
	}
	_, err := f.svc.Create(context.Background(), f.admin, groupScheme())
	assert.NoError(t, err)
}

func TestCreate_IndividualDistributorsResolved(t *testing.T) {
	f := newSchemeFixture(t)
	d1 := f.seedDistributor(t, "C-100", "Alpha Traders")
	d2 := f.seedDistributor(t, "C-200", "Beta Stores")

	req := groupScheme()
	req.DistributorType = model.DistributorIndividual
	req.Distributors = []string{d1.ID.String(), d2.ID.String(), d1.ID.String()}
	resp := f.create(t, req)

	refs, ok := resp.Distributors.([]dto.DistributorRef)
	require.True(t, ok)
	require.Len(t, refs, 2, "duplicates are dropped")
	assert.Equal(t, "Alpha Traders", refs[0].OrganizationName)
	assert.Equal(t, "C-200", refs[1].CustomerAccount)
}

func TestCreate_NotifiesVerifiers(t *testing.T) {
	f := newSchemeFixture(t, func(c *config.Config) { c.NotifyVerifiersEmail = "team@example.com" })
	resp := f.create(t, groupScheme())

	require.Len(t, f.notifier.sent, 1)
	mail := f.notifier.sent[0]
	assert.ElementsMatch(t, []string{"team@example.com", "verifier@example.com"}, mail.To)
	assert.Contains(t, mail.Subject, resp.SchemeCode)
}

// ── Verify / Reject ───────────────────────────────────────────────────────────

func TestVerify_SetsStatusAndAppendsHistory(t *testing.T) {
	f := newSchemeFixture(t)
	created := f.create(t, groupScheme())

	resp, err := f.svc.Verify(context.Background(), created.ID, f.verifier, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, resp.Status)
	require.NotNil(t, resp.VerifiedBy)
	assert.Equal(t, f.verifier.ID.String(), resp.VerifiedBy.ID)
	assert.Equal(t, []string{model.ActionCreated, model.ActionVerified}, historyActions(resp))
	assert.Equal(t, "Scheme verified", resp.History[1].Notes)
	require.NotNil(t, resp.History[1].User)
	assert.Equal(t, "Vic Verifier", resp.History[1].User.Name)

	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, []string{"creator@example.com"}, last.To)
}

func TestReject_ByCodeWithNotes(t *testing.T) {
	f := newSchemeFixture(t)
	created := f.create(t, groupScheme())

	resp, err := f.svc.Reject(context.Background(), created.SchemeCode, f.admin, "price too low")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, resp.Status)
	assert.Nil(t, resp.VerifiedBy)
	assert.Equal(t, "price too low", resp.History[1].Notes)
}

func TestRejectAfterVerify_Permissive(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()
	created := f.create(t, groupScheme())

	_, err := f.svc.Verify(ctx, created.ID, f.verifier, "")
	require.NoError(t, err)
	resp, err := f.svc.Reject(ctx, created.ID, f.verifier, "")
	require.NoError(t, err)

	assert.Equal(t, model.StatusRejected, resp.Status)
	assert.Equal(t, []string{model.ActionCreated, model.ActionVerified, model.ActionRejected}, historyActions(resp))
}

func TestRejectAfterVerify_Strict(t *testing.T) {
	f := newSchemeFixture(t, func(c *config.Config) { c.SchemeStrictTransitions = true })
	ctx := context.Background()
	created := f.create(t, groupScheme())

	_, err := f.svc.Verify(ctx, created.ID, f.verifier, "")
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, created.ID, f.verifier, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, got.Status)
	assert.Len(t, got.History, 2)
}

func TestTransition_RequiresVerifierOrAdmin(t *testing.T) {
	f := newSchemeFixture(t)
	created := f.create(t, groupScheme())

	_, err := f.svc.Verify(context.Background(), created.ID, f.creator, "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Reject(context.Background(), created.ID, f.viewer, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTransition_UnknownScheme(t *testing.T) {
	f := newSchemeFixture(t)
	_, err := f.svc.Verify(context.Background(), uuid.NewString(), f.verifier, "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Get(context.Background(), "SCH-19700101-0000")
	assert.ErrorIs(t, err, ErrNotFound)
}

// ── Update ────────────────────────────────────────────────────────────────────

func TestUpdate_ForbiddenLeavesRecordIntact(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()
	created := f.create(t, groupScheme())

	end := "2024-12-31"
	_, err := f.svc.Update(ctx, created.ID, f.verifier, dto.UpdateSchemeRequest{EndDate: &end})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.EndDate, got.EndDate)
	assert.Len(t, got.History, 1)
}

func TestUpdate_OnlyOwnerOrAdmin(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()
	created := f.create(t, groupScheme())
	other := f.seedUser(t, "Otto Other", "other@example.com", model.RoleCreator)

	end := "2024-12-31"
	_, err := f.svc.Update(ctx, created.ID, other, dto.UpdateSchemeRequest{EndDate: &end})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.EndDate, got.EndDate)
	assert.Len(t, got.History, 1)

	resp, err := f.svc.Update(ctx, created.SchemeCode, f.admin, dto.UpdateSchemeRequest{EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), resp.EndDate)
	assert.Len(t, resp.History, 2)
}

func TestUpdate_PatchReplacesProductsAndIgnoresClientHistory(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()
	created := f.create(t, groupScheme())

	status := model.StatusActive
	patch := dto.UpdateSchemeRequest{
		Products: []dto.ProductInput{{"itemCode": "NEW-1"}, {"itemCode": "NEW-2", "discountPrice": 3}},
		Status:   &status,
		Notes:    "swap lineup",
	}
	resp, err := f.svc.Update(ctx, created.ID, f.creator, patch)
	require.NoError(t, err)

	require.Len(t, resp.Products, 2)
	assert.Equal(t, "NEW-1", resp.Products[0].ItemID)
	assert.Equal(t, model.StatusActive, resp.Status)
	assert.Equal(t, created.StartDate, resp.StartDate, "untouched fields kept")
	assert.Equal(t, []string{model.ActionCreated, model.ActionModified}, historyActions(resp))
	assert.Equal(t, "swap lineup", resp.History[1].Notes)
}

func TestUpdate_RejectsUnknownStatusAndBadRange(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()
	created := f.create(t, groupScheme())

	bogus := "Archived"
	_, err := f.svc.Update(ctx, created.ID, f.creator, dto.UpdateSchemeRequest{Status: &bogus})
	assert.ErrorIs(t, err, ErrValidation)

	early := "2023-01-01"
	_, err = f.svc.Update(ctx, created.ID, f.creator, dto.UpdateSchemeRequest{EndDate: &early})
	assert.ErrorIs(t, err, ErrValidation)
}

// ── Delete / Bulk ─────────────────────────────────────────────────────────────

func TestBulkDelete_OneFailureAmongThree(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()
	a := f.create(t, groupScheme())
	b := f.create(t, groupScheme())
	missing := uuid.NewString()

	results := f.svc.BulkDelete(ctx, []string{a.ID, missing, b.SchemeCode})
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "not found")
	assert.True(t, results[2].Success)

	bulk := dto.NewBulkResponse(results)
	assert.False(t, bulk.Success)
	assert.Equal(t, 2, bulk.Succeeded)
	assert.Equal(t, 1, bulk.Failed)

	_, err := f.svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBulkUpdate_PerItemOutcome(t *testing.T) {
	f := newSchemeFixture(t)
	a := f.create(t, groupScheme())
	end := "2024-04-30"

	results := f.svc.BulkUpdate(context.Background(), f.creator, []dto.BulkUpdateItem{
		{ID: a.ID, Patch: dto.UpdateSchemeRequest{EndDate: &end}},
		{ID: "nope", Patch: dto.UpdateSchemeRequest{EndDate: &end}},
	})
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.NotNil(t, results[0].Data)
	assert.False(t, results[1].Success)
}

func TestBulkUpdate_NonOwnerCreatorIsRejectedPerItem(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()
	created := f.create(t, groupScheme())
	other := f.seedUser(t, "Otto Other", "other@example.com", model.RoleCreator)
	end := "2024-04-30"

	results := f.svc.BulkUpdate(ctx, other, []dto.BulkUpdateItem{
		{ID: created.ID, Patch: dto.UpdateSchemeRequest{EndDate: &end}},
	})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "forbidden")

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.EndDate, got.EndDate)
	assert.Len(t, got.History, 1)
}

// ── List ──────────────────────────────────────────────────────────────────────

func TestList_FiltersByStatus(t *testing.T) {
	f := newSchemeFixture(t)
	ctx := context.Background()
	a := f.create(t, groupScheme())
	f.create(t, groupScheme())
	_, err := f.svc.Verify(ctx, a.ID, f.verifier, "")
	require.NoError(t, err)

	page, err := f.svc.List(ctx, url.Values{"status": {model.StatusVerified}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, a.ID, page.Items[0].ID)

	_, err = f.svc.List(ctx, url.Values{"password": {"x"}})
	assert.ErrorIs(t, err, ErrValidation)
}
