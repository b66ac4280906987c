package handler

import (
	"net/http"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/service"

	"github.com/gin-gonic/gin"
)

type DistributorsHandler struct{ svc service.DistributorService }

func NewDistributorsHandler(svc service.DistributorService) *DistributorsHandler {
	return &DistributorsHandler{svc: svc}
}

func (h *DistributorsHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respondList(c, page)
}

func (h *DistributorsHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, resp)
}

func (h *DistributorsHandler) Create(c *gin.Context) {
	var req dto.DistributorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, resp)
}

func (h *DistributorsHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	var req dto.UpdateDistributorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, resp)
}

func (h *DistributorsHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{})
}
