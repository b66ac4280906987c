package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/infra"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Auth ──────────────────────────────────────────────────────────────────────

func TestAuth_RegisterLoginAndCurrentUser(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/register", nil, map[string]any{
		"name": "Nina New", "email": "nina@example.com", "password": "secret1", "confirmPassword": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, model.RoleViewer, decode[dto.LoginResponse](t, w).User.Role)

	w = app.do(t, http.MethodPost, "/api/auth/register", nil, map[string]any{
		"name": "Nina New", "email": "nina@example.com", "password": "secret1", "confirmPassword": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodPost, "/api/auth/login", nil, map[string]any{"email": "nina@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[dto.LoginResponse](t, w)
	assert.NotEmpty(t, login.Token)

	req := newRequest(t, http.MethodGet, "/api/auth/getCurrentUser", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = serve(app, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "nina@example.com", decode[envelope[dto.UserResponse]](t, w).Data.Email)

	w = app.do(t, http.MethodPost, "/api/auth/refresh", nil, map[string]string{"refresh_token": login.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_LoginFailures(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/login", nil, map[string]any{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodPost, "/api/auth/login", nil, map[string]any{"email": "not-an-email", "password": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, w)
	assert.Equal(t, "email", resp.Fields["email"])

	w = app.do(t, http.MethodPost, "/api/auth/refresh", nil, map[string]string{"refresh_token": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUsers_DeactivateIsAdminOnly(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodDelete, "/api/auth/users/"+app.viewer.ID.String(), app.creator, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodDelete, "/api/auth/users/not-a-uuid", app.admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodDelete, "/api/auth/users/"+app.viewer.ID.String(), app.admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// ── Sync ──────────────────────────────────────────────────────────────────────

func TestSync_ProductsAndStatus(t *testing.T) {
	app := newTestApp(t)
	app.source.rows = []infra.Row{
		{"ITEMID": "A", "ITEMNAME": "Cola", "Style": "S1", "Configuration": "250"},
		{"ITEMID": "", "ITEMNAME": "Ghost"},
	}

	w := app.do(t, http.MethodPost, "/api/sync/products", app.viewer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodPost, "/api/sync/products", app.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[envelope[dto.SyncResult]](t, w).Data
	assert.Equal(t, dto.SyncSuccess, res.Status)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)

	w = app.do(t, http.MethodGet, "/api/sync/status", app.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[envelope[dto.SyncStatusResponse]](t, w).Data
	assert.False(t, status.Running)
	require.NotNil(t, status.Products)
	assert.Nil(t, status.Distributors)
}

func TestSync_SourceFailureIs502WithResult(t *testing.T) {
	app := newTestApp(t)
	app.source.err = errors.New("connection refused")

	w := app.do(t, http.MethodPost, "/api/sync/products", app.admin, nil)
	require.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
	resp := decode[envelope[dto.SyncResult]](t, w)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "connection refused")
	assert.Equal(t, dto.SyncFailed, resp.Data.Status)
}

// ── Products ──────────────────────────────────────────────────────────────────

func TestProducts_ImportPartial(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/products/import", app.admin, map[string]any{
		"products": []map[string]any{{"ITEMID": "A", "ITEMNAME": "Cola"}, {"ITEMID": ""}},
	})
	require.Equal(t, http.StatusMultiStatus, w.Code, w.Body.String())
	resp := decode[envelope[dto.ProductImportResponse]](t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, 1, resp.Data.Created)
	assert.Equal(t, 1, resp.Data.Failed)

	w = app.do(t, http.MethodGet, "/api/products/getAllProducts?ITEMID=A", app.viewer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[struct {
		Total int64 `json:"total"`
	}](t, w)
	assert.EqualValues(t, 1, list.Total)
}

// ── Dashboard and presets ─────────────────────────────────────────────────────

func TestDashboard_Stats(t *testing.T) {
	app := newTestApp(t)
	app.createScheme(t)

	w := app.do(t, http.MethodGet, "/api/dashboard/stats", app.viewer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[envelope[dto.DashboardStats]](t, w).Data
	assert.EqualValues(t, 1, stats.Total)
	assert.EqualValues(t, 1, stats.Pending)
}

func TestFilterPresets_PerUser(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/filter-presets", app.creator, map[string]any{
		"name": "Pending", "filters": map[string]any{"status": model.StatusPendingVerification},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do(t, http.MethodGet, "/api/filter-presets", app.creator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[envelope[[]dto.FilterPresetResponse]](t, w).Data, 1)

	w = app.do(t, http.MethodGet, "/api/filter-presets", app.verifier, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[envelope[[]dto.FilterPresetResponse]](t, w).Data)
}
