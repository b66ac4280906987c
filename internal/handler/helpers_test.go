package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/config"
	"github.com/RatanSinghYadav/scheme-app-api/internal/infra"
	"github.com/RatanSinghYadav/scheme-app-api/internal/middleware"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository/memrepo"
	"github.com/RatanSinghYadav/scheme-app-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRows struct {
	rows []infra.Row
	err  error
}

func (s *stubRows) Query(context.Context, string, ...any) ([]infra.Row, error) {
	return s.rows, s.err
}

// testApp is the HTTP surface over in-memory stores.
type testApp struct {
	r            *gin.Engine
	users        *memrepo.Users
	distributors *memrepo.Distributors
	products     *memrepo.Products
	source       *stubRows

	admin, creator, verifier, viewer *model.User
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := &config.Config{
		JWTSecret: testSecret, JWTExpirationHours: 1, JWTRefreshHours: 2,
		ExportCompany: "brly", ExportTaxChargeCode: "DIS_PRI_VL",
	}
	app := &testApp{
		users:        memrepo.NewUsers(),
		distributors: memrepo.NewDistributors(),
		products:     memrepo.NewProducts(),
		source:       &stubRows{},
	}
	schemes := memrepo.NewSchemes(app.users)

	authSvc := service.NewAuthService(app.users, cfg)
	schemesH := NewSchemesHandler(service.NewSchemeService(schemes, app.distributors, app.users, nil, cfg))
	productsH := NewProductsHandler(service.NewProductService(app.products))
	syncH := NewSyncHandler(service.NewSyncService(app.source, app.products, app.distributors, service.SyncOptions{}))
	authH := NewAuthHandler(authSvc)
	usersH := NewUsersHandler(authSvc)
	dashH := NewDashboardHandler(service.NewDashboardService(schemes))
	presetsH := NewFilterPresetsHandler(service.NewFilterPresetService(memrepo.NewFilterPresets()))

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery())

	jwtMW := middleware.JWTAuth(testSecret)
	admin := middleware.RequireRole(model.RoleAdmin)
	writers := middleware.RequireRole(model.RoleCreator, model.RoleAdmin)
	verifiers := middleware.RequireRole(model.RoleVerifier, model.RoleAdmin)

	api := r.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/login", authH.Login)
	auth.POST("/register", authH.Register)
	auth.POST("/refresh", authH.Refresh)
	auth.GET("/getCurrentUser", jwtMW, authH.CurrentUser)
	auth.DELETE("/users/:id", jwtMW, admin, usersH.Deactivate)

	s := api.Group("/schemes", jwtMW)
	s.GET("/getAllSchemes", schemesH.List)
	s.GET("/getScheme/:id", schemesH.Get)
	s.GET("/export/:id", schemesH.Export)
	s.GET("/exportByDate", schemesH.ExportByDate)
	s.POST("/create", writers, schemesH.Create)
	s.PUT("/update/:id", writers, schemesH.Update)
	s.PUT("/verify/:id", verifiers, schemesH.Verify)
	s.PUT("/reject/:id", verifiers, schemesH.Reject)
	s.DELETE("/delete/:id", admin, schemesH.Delete)
	s.POST("/bulk-delete", admin, schemesH.BulkDelete)

	p := api.Group("/products", jwtMW)
	p.GET("/getAllProducts", productsH.List)
	p.POST("/import", admin, productsH.Import)

	api.GET("/dashboard/stats", jwtMW, dashH.Stats)
	api.GET("/filter-presets", jwtMW, presetsH.List)
	api.POST("/filter-presets", jwtMW, presetsH.Create)

	sy := api.Group("/sync", jwtMW, admin)
	sy.POST("/products", syncH.Products)
	sy.GET("/status", syncH.Status)

	app.r = r
	app.admin = app.seedUser(t, "Ada Admin", "admin@example.com", model.RoleAdmin)
	app.creator = app.seedUser(t, "Cora Creator", "creator@example.com", model.RoleCreator)
	app.verifier = app.seedUser(t, "Vic Verifier", "verifier@example.com", model.RoleVerifier)
	app.viewer = app.seedUser(t, "Val Viewer", "viewer@example.com", model.RoleViewer)
	return app
}

func (a *testApp) seedUser(t *testing.T, name, email, role string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: email, Role: role, Active: true, PasswordHash: "x"}
	require.NoError(t, a.users.Create(context.Background(), u))
	return u
}

func signToken(t *testing.T, u *model.User, typ string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": u.ID.String(), "email": u.Email, "name": u.Name, "role": u.Role, "typ": typ,
		"exp": time.Now().Add(ttl).Unix(), "iat": time.Now().Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

// do sends body as JSON. as may be nil for an anonymous request.
func (a *testApp) do(t *testing.T, method, path string, as *model.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := newRequest(t, method, path, &buf)
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+signToken(t, as, "access", time.Hour))
	}
	return serve(a, req)
}

func newRequest(t *testing.T, method, path string, body io.Reader) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(a *testApp, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// envelope mirrors dto.Envelope with a typed payload.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    T      `json:"data"`
}
