package handler

import (
	"errors"
	"net/http"

	"github.com/RatanSinghYadav/scheme-app-api/internal/service"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct{ svc service.SyncService }

func NewSyncHandler(svc service.SyncService) *SyncHandler { return &SyncHandler{svc: svc} }

// All godoc
// @Summary Reconcile products and distributors from the external source
// @Tags sync
// @Produce json
// @Success 200 {object} dto.SyncAllResponse
// @Failure 409 {object} apierror.APIError
// @Failure 502 {object} apierror.APIError
// @Router /api/sync/all [post]
func (h *SyncHandler) All(c *gin.Context) {
	resp, err := h.svc.SyncAll(c.Request.Context())
	if err != nil {
		writeSyncError(c, err, resp)
		return
	}
	respond(c, http.StatusOK, resp)
}

func (h *SyncHandler) Products(c *gin.Context) {
	res, err := h.svc.SyncProducts(c.Request.Context())
	if err != nil {
		writeSyncError(c, err, res)
		return
	}
	respond(c, http.StatusOK, res)
}

func (h *SyncHandler) Distributors(c *gin.Context) {
	res, err := h.svc.SyncDistributors(c.Request.Context())
	if err != nil {
		writeSyncError(c, err, res)
		return
	}
	respond(c, http.StatusOK, res)
}

func (h *SyncHandler) Status(c *gin.Context) {
	resp, err := h.svc.Status(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, resp)
}

// writeSyncError keeps the partial result in the body of a 502 so callers
// can see how far the run got.
func writeSyncError(c *gin.Context, err error, result any) {
	if errors.Is(err, service.ErrExternalSource) && result != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error(), "data": result})
		return
	}
	writeServiceError(c, err)
}

