package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/RatanSinghYadav/scheme-app-api/internal/apierror"
	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/infra"
	"github.com/RatanSinghYadav/scheme-app-api/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	exportSheet = "Scheme Data"
	mimeXLSX    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF     = "application/pdf"
	formatExcel = "excel"
	formatPDF   = "pdf"
)

type SchemesHandler struct{ svc service.SchemeService }

func NewSchemesHandler(svc service.SchemeService) *SchemesHandler {
	return &SchemesHandler{svc: svc}
}

// List godoc
// @Summary List schemes
// @Description Filters: status, distributorType, schemeCode, startDate, endDate, createdDate as field or field[op]. Sort with sort=-createdDate.
// @Tags schemes
// @Produce json
// @Success 200 {object} dto.ListResponse
// @Failure 400 {object} apierror.APIError
// @Router /api/schemes/getAllSchemes [get]
func (h *SchemesHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respondList(c, page)
}

func (h *SchemesHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, resp)
}

// Create godoc
// @Summary Create a scheme
// @Tags schemes
// @Accept json
// @Produce json
// @Param body body dto.CreateSchemeRequest true "Scheme"
// @Success 201 {object} dto.Envelope
// @Failure 400 {object} apierror.ValidationError
// @Router /api/schemes/create [post]
func (h *SchemesHandler) Create(c *gin.Context) {
	a, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.CreateSchemeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), a, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, resp)
}

func (h *SchemesHandler) Update(c *gin.Context) {
	a, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.UpdateSchemeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), c.Param("id"), a, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, resp)
}

func (h *SchemesHandler) Verify(c *gin.Context) { h.transition(c, h.svc.Verify) }

func (h *SchemesHandler) Reject(c *gin.Context) { h.transition(c, h.svc.Reject) }

type transitionFunc func(ctx context.Context, ref string, a service.Actor, notes string) (*dto.SchemeResponse, error)

// transition accepts an optional {"notes": "..."} body.
func (h *SchemesHandler) transition(c *gin.Context, fn transitionFunc) {
	a, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.TransitionRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := fn(c.Request.Context(), c.Param("id"), a, req.Notes)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, resp)
}

func (h *SchemesHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{})
}

func (h *SchemesHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkDeleteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	respondBulk(c, h.svc.BulkDelete(c.Request.Context(), req.IDs))
}

func (h *SchemesHandler) BulkUpdate(c *gin.Context) {
	a, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.BulkUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	respondBulk(c, h.svc.BulkUpdate(c.Request.Context(), a, req.Items))
}

// ── Export ────────────────────────────────────────────────────────────────────

// Export godoc
// @Summary Export one scheme
// @Tags schemes
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce application/pdf
// @Param id path string true "Scheme id or code"
// @Param format query string false "excel (default) or pdf"
// @Router /api/schemes/export/{id} [get]
func (h *SchemesHandler) Export(c *gin.Context) {
	format, ok := exportFormat(c)
	if !ok {
		return
	}
	code, rows, err := h.svc.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeExport(c, format, "scheme_"+code, "Scheme "+code, rows)
}

func (h *SchemesHandler) ExportByDate(c *gin.Context) {
	format, ok := exportFormat(c)
	if !ok {
		return
	}
	start, end := c.Query("startDate"), c.Query("endDate")
	rows, err := h.svc.ExportByDate(c.Request.Context(), start, end)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeExport(c, format, fmt.Sprintf("schemes_%s_%s", start, end), fmt.Sprintf("Schemes %s to %s", start, end), rows)
}

func exportFormat(c *gin.Context) (string, bool) {
	format := c.DefaultQuery("format", formatExcel)
	if format != formatExcel && format != formatPDF {
		c.JSON(http.StatusBadRequest, apierror.New("format must be excel or pdf"))
		return "", false
	}
	return format, true
}

func writeExport(c *gin.Context, format, filename, title string, rows []dto.ExportRow) {
	var buf bytes.Buffer
	var err error
	mime := mimeXLSX
	if format == formatPDF {
		mime = mimePDF
		filename += ".pdf"
		err = infra.WriteExportPDF(&buf, title, rows)
	} else {
		filename += ".xlsx"
		err = infra.WriteExportXLSX(&buf, exportSheet, rows)
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, mime, buf.Bytes())
}
