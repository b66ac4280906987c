package handler

import (
	"net/http"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Register godoc
// @Summary Self-service registration
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "Account"
// @Success 201 {object} dto.LoginResponse
// @Failure 400 {object} apierror.ValidationError
// @Failure 409 {object} apierror.APIError
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) CheckEmail(c *gin.Context) {
	var req dto.CheckEmailRequest
	if !bindAndValidate(c, &req) {
		return
	}
	exists, err := h.svc.CheckEmail(c.Request.Context(), req.Email)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, dto.CheckEmailResponse{Exists: exists})
}

// Logout is stateless: tokens simply expire. The client discards them.
func (h *AuthHandler) Logout(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{})
}

func (h *AuthHandler) CurrentUser(c *gin.Context) {
	a, ok := requireActor(c)
	if !ok {
		return
	}
	resp, err := h.svc.CurrentUser(c.Request.Context(), a.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, resp)
}

// ── Users (admin) ─────────────────────────────────────────────────────────────

type UsersHandler struct{ svc service.AuthService }

func NewUsersHandler(svc service.AuthService) *UsersHandler {
	return &UsersHandler{svc: svc}
}

func (h *UsersHandler) List(c *gin.Context) {
	resp, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	n := len(resp)
	c.JSON(http.StatusOK, dto.Envelope{Success: true, Count: &n, Data: resp})
}

func (h *UsersHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateUser(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, resp)
}

func (h *UsersHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, resp)
}

func (h *UsersHandler) Deactivate(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	if a, ok := actor(c); ok && a.ID == id {
		writeServiceError(c, invalidSelf)
		return
	}
	if err := h.svc.DeactivateUser(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{})
}

func (h *UsersHandler) ResetPassword(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	var req dto.ResetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), id, req.Password); err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{})
}

var invalidSelf = &service.FieldError{Field: "id", Reason: "admins cannot deactivate their own account"}
