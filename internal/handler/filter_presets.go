package handler

import (
	"net/http"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/service"

	"github.com/gin-gonic/gin"
)

type FilterPresetsHandler struct{ svc service.FilterPresetService }

func NewFilterPresetsHandler(svc service.FilterPresetService) *FilterPresetsHandler {
	return &FilterPresetsHandler{svc: svc}
}

func (h *FilterPresetsHandler) List(c *gin.Context) {
	a, ok := requireActor(c)
	if !ok {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), a.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	n := len(resp)
	c.JSON(http.StatusOK, dto.Envelope{Success: true, Count: &n, Data: resp})
}

func (h *FilterPresetsHandler) Create(c *gin.Context) {
	a, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.CreateFilterPresetRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), a.ID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, resp)
}

func (h *FilterPresetsHandler) Delete(c *gin.Context) {
	a, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), a.ID, id); err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{})
}
