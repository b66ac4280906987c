package service

import (
	"context"
	"testing"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository/memrepo"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (AuthService, *memrepo.Users) {
	t.Helper()
	users := memrepo.NewUsers()
	return NewAuthService(users, newTestCfg()), users
}

func register(t *testing.T, svc AuthService, email, role string) *dto.LoginResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Test User", Email: email, Password: "secret1", ConfirmPassword: "secret1", Role: role,
	})
	require.NoError(t, err)
	return resp
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	return parsed.Claims.(jwt.MapClaims)
}

func TestRegister_DefaultsToViewerAndIssuesTokens(t *testing.T) {
	svc, _ := newAuthFixture(t)
	resp := register(t, svc, "New.User@Example.com", "")

	assert.True(t, resp.Success)
	assert.Equal(t, model.RoleViewer, resp.User.Role)
	assert.Equal(t, "new.user@example.com", resp.User.Email)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)

	claims := parseClaims(t, resp.Token)
	assert.Equal(t, "access", claims["typ"])
	assert.Equal(t, resp.User.ID, claims["user_id"])
	assert.Equal(t, model.RoleViewer, claims["role"])
	assert.Equal(t, "refresh", parseClaims(t, resp.RefreshToken)["typ"])
}

func TestRegister_Errors(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterRequest{Name: "X Y", Email: "a@b.com", Password: "secret1", ConfirmPassword: "other"})
	assert.ErrorIs(t, err, ErrValidation)

	register(t, svc, "a@b.com", model.RoleCreator)
	_, err = svc.Register(ctx, dto.RegisterRequest{Name: "X Y", Email: "A@B.com", Password: "secret1", ConfirmPassword: "secret1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLogin(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()
	reg := register(t, svc, "cora@example.com", model.RoleCreator)

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "cora@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCreator, resp.User.Role)
	require.NotNil(t, resp.User.LastLogin)

	stored, err := users.FindByEmail(ctx, "cora@example.com")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "cora@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.DeactivateUser(ctx, uuid.MustParse(reg.User.ID)))
	_, err = svc.Login(ctx, dto.LoginRequest{Email: "cora@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "deactivated users cannot log in")
}

func TestRefresh(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()
	reg := register(t, svc, "vic@example.com", model.RoleVerifier)

	resp, err := svc.Refresh(ctx, reg.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, resp.User.ID)

	_, err = svc.Refresh(ctx, reg.Token)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "access tokens cannot refresh")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": reg.User.ID, "typ": "refresh", "exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, signed)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserAdministration(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, dto.CreateUserRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1", Role: model.RoleAdmin})
	require.NoError(t, err)
	other := register(t, svc, "other@example.com", "")
	id := uuid.MustParse(created.ID)

	taken := "other@example.com"
	_, err = svc.UpdateUser(ctx, id, dto.UpdateUserRequest{Email: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	role := model.RoleVerifier
	updated, err := svc.UpdateUser(ctx, id, dto.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, model.RoleVerifier, updated.Role)

	require.NoError(t, svc.ResetPassword(ctx, id, "brand-new"))
	_, err = svc.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: "brand-new"})
	assert.NoError(t, err)

	list, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	exists, err := svc.CheckEmail(ctx, "OTHER@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	me, err := svc.CurrentUser(ctx, uuid.MustParse(other.User.ID))
	require.NoError(t, err)
	assert.Equal(t, "other@example.com", me.Email)

	_, err = svc.CurrentUser(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
