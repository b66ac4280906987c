package handler

import (
	"net/http"

	"github.com/RatanSinghYadav/scheme-app-api/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct{ svc service.DashboardService }

func NewDashboardHandler(svc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	resp, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, resp)
}

func (h *DashboardHandler) Activities(c *gin.Context) {
	resp, err := h.svc.Activities(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, resp)
}
