package service

import (
	"context"
	"sync"
	"testing"

	"github.com/RatanSinghYadav/scheme-app-api/internal/config"
	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/infra"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository/memrepo"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

const testSecret = "test_jwt_secret_32_chars_minimum!"

func newTestCfg() *config.Config {
	return &config.Config{
		JWTSecret:           testSecret,
		JWTExpirationHours:  8,
		JWTRefreshHours:     24,
		ExportCompany:       "brly",
		ExportTaxChargeCode: "DIS_PRI_VL",
	}
}

// ── Notifier stub ─────────────────────────────────────────────────────────────

type sentEmail struct {
	To      []string
	Subject string
	Body    string
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (n *stubNotifier) EnqueueEmail(_ context.Context, to []string, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEmail{To: to, Subject: subject, Body: body})
	return nil
}

// ── Source stub ───────────────────────────────────────────────────────────────

type stubSource struct {
	mu    sync.Mutex
	rows  []infra.Row
	err   error
	calls int
	// block, when set, holds Query until it is closed.
	block chan struct{}
}

func (s *stubSource) Query(ctx context.Context, _ string, _ ...any) ([]infra.Row, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	s.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

// ── Scheme fixture ────────────────────────────────────────────────────────────

type schemeFixture struct {
	svc          SchemeService
	schemes      *memrepo.Schemes
	users        *memrepo.Users
	distributors *memrepo.Distributors
	notifier     *stubNotifier
	cfg          *config.Config

	admin, creator, verifier, viewer Actor
}

func newSchemeFixture(t *testing.T, mutate ...func(*config.Config)) *schemeFixture {
	t.Helper()
	cfg := newTestCfg()
	for _, m := range mutate {
		m(cfg)
	}
	f := &schemeFixture{
		users:        memrepo.NewUsers(),
		distributors: memrepo.NewDistributors(),
		notifier:     &stubNotifier{},
		cfg:          cfg,
	}
	f.schemes = memrepo.NewSchemes(f.users)
	f.svc = NewSchemeService(f.schemes, f.distributors, f.users, f.notifier, cfg)

	f.admin = f.seedUser(t, "Ada Admin", "admin@example.com", model.RoleAdmin)
	f.creator = f.seedUser(t, "Cora Creator", "creator@example.com", model.RoleCreator)
	f.verifier = f.seedUser(t, "Vic Verifier", "verifier@example.com", model.RoleVerifier)
	f.viewer = f.seedUser(t, "Val Viewer", "viewer@example.com", model.RoleViewer)
	return f
}

func (f *schemeFixture) seedUser(t *testing.T, name, email, role string) Actor {
	t.Helper()
	u := &model.User{Name: name, Email: email, Role: role, Active: true, PasswordHash: "x"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return Actor{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (f *schemeFixture) seedDistributor(t *testing.T, account, name string) model.Distributor {
	t.Helper()
	d := &model.Distributor{CustomerAccount: account, OrganizationName: name, CustomerGroupID: "GRP-" + account}
	require.NoError(t, f.distributors.Create(context.Background(), d))
	return *d
}

func (f *schemeFixture) create(t *testing.T, req dto.CreateSchemeRequest) *dto.SchemeResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.creator, req)
	require.NoError(t, err)
	return resp
}

func groupScheme(products ...dto.ProductInput) dto.CreateSchemeRequest {
	if len(products) == 0 {
		products = []dto.ProductInput{{"itemCode": "ITM-001", "itemName": "Cola 250ml", "discountPrice": 1.5}}
	}
	return dto.CreateSchemeRequest{
		StartDate:       "2024-03-01",
		EndDate:         "2024-03-31",
		DistributorType: model.DistributorGroup,
		Distributors:    []string{"GRP-NORTH"},
		Products:        products,
	}
}
