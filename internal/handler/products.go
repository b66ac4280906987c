package handler

import (
	"net/http"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// List godoc
// @Summary List master products
// @Description Filters use field or field[op] with op in eq, ne, gt, gte, lt, lte, in.
// @Tags products
// @Produce json
// @Success 200 {object} dto.ListResponse
// @Failure 400 {object} apierror.APIError
// @Router /api/products/getAllProducts [get]
func (h *ProductsHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respondList(c, page)
}

func (h *ProductsHandler) Get(c *gin.Context) {
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

func (h *ProductsHandler) Stats(c *gin.Context) {
	resp, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, resp)
}

func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
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

func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
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

func (h *ProductsHandler) Delete(c *gin.Context) {
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

func (h *ProductsHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkDeleteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	respondBulk(c, h.svc.BulkDelete(c.Request.Context(), req.IDs))
}

func (h *ProductsHandler) Import(c *gin.Context) {
	var req dto.ProductImportRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Import(c.Request.Context(), req.Products)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	status := http.StatusOK
	if resp.Failed > 0 {
		status = http.StatusMultiStatus
		if resp.Created+resp.Updated == 0 {
			status = http.StatusBadRequest
		}
	}
	c.JSON(status, dto.Envelope{Success: resp.Failed == 0, Data: resp})
}
