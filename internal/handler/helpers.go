package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/RatanSinghYadav/scheme-app-api/internal/apierror"
	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/middleware"
	"github.com/RatanSinghYadav/scheme-app-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Lets tags like min=0 work on decimal.Decimal fields.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// bindAndValidate binds the JSON body and runs go-playground/validator tags.
// Returns false after writing a 400 response; the caller must return.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:]] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, apierror.NewValidation(fields))
		return false
	}
	return true
}

// actor builds the service actor from the JWT claims.
func actor(c *gin.Context) (service.Actor, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return service.Actor{}, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return service.Actor{}, false
	}
	return service.Actor{ID: id, Name: claims.Name, Email: claims.Email, Role: claims.Role}, true
}

// requireActor writes 401 when the request carries no usable identity.
func requireActor(c *gin.Context) (service.Actor, bool) {
	a, ok := actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierror.New("Not authorized to access this route"))
	}
	return a, ok
}

// pathUUID parses the :id path parameter, writing 400 on failure.
func pathUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, dto.Envelope{Success: true, Data: data})
}

func respondList[T any](c *gin.Context, page *service.Page[T]) {
	c.JSON(http.StatusOK, dto.ListResponse{
		Success: true,
		Count:   len(page.Items),
		Total:   page.Total,
		Page:    page.Page,
		Limit:   page.Limit,
		Data:    page.Items,
	})
}

// respondBulk is 200 when every item succeeded, 400 when all failed and 207
// otherwise.
func respondBulk(c *gin.Context, results []dto.BulkItemResult) {
	resp := dto.NewBulkResponse(results)
	status := http.StatusMultiStatus
	switch {
	case resp.Failed == 0:
		status = http.StatusOK
	case resp.Succeeded == 0:
		status = http.StatusBadRequest
	}
	c.JSON(status, resp)
}

// writeServiceError maps service sentinels onto HTTP responses. Anything else
// is logged and returned as a generic 500.
func writeServiceError(c *gin.Context, err error) {
	var fe *service.FieldError
	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusBadRequest, apierror.NewValidation(map[string]string{fe.Field: fe.Reason}))
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrSyncInProgress):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrExternalSource):
		c.JSON(http.StatusBadGateway, apierror.New(err.Error()))
	default:
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("unhandled service error")
		c.JSON(http.StatusInternalServerError, apierror.New("Internal server error"))
	}
}
