package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/crimesense/casesearch/api/internal/errors"
	"github.com/crimesense/casesearch/api/internal/query"
	"github.com/crimesense/casesearch/api/internal/services"
)

// FilterHandler handles the dropdown dimension endpoints.
type FilterHandler struct {
	service services.CaseService
}

// NewFilterHandler creates a new FilterHandler instance.
func NewFilterHandler(service services.CaseService) *FilterHandler {
	return &FilterHandler{
		service: service,
	}
}

// FilterRequest represents the shared filter parameters accepted by the
// dimension endpoints.
type FilterRequest struct {
	Center   string `form:"center"`
	Category string `form:"category"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	Q        string `form:"q"`
}

// CentersRequest is the filter set for the centers endpoint, which takes no
// center parameter: a dimension is never scoped by itself.
type CentersRequest struct {
	Category string `form:"category"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	Q        string `form:"q"`
}

// AmphursRequest requires the parent province.
type AmphursRequest struct {
	Province string `form:"province" binding:"required"`
	Center   string `form:"center"`
	Category string `form:"category"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	Q        string `form:"q"`
}

// TambolsRequest requires the parent amphur; province is optional.
type TambolsRequest struct {
	Amphur   string `form:"amphur" binding:"required"`
	Province string `form:"province"`
	Center   string `form:"center"`
	Category string `form:"category"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	Q        string `form:"q"`
}

// All handles GET /cases/filters.
// Every dimension is computed against the same shared predicate; an empty
// filtered dimension falls back to its unfiltered values.
func (h *FilterHandler) All(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	set, err := h.service.GetFilters(c.Request.Context(), query.Filter{
		Center:   req.Center,
		Category: req.Category,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Search:   req.Q,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to query filter values", err)
		return
	}

	c.JSON(http.StatusOK, set)
}

// Centers handles GET /cases/centers.
func (h *FilterHandler) Centers(c *gin.Context) {
	var req CentersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	values, err := h.service.ListCenters(c.Request.Context(), query.Filter{
		Category: req.Category,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Search:   req.Q,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to query centers", err)
		return
	}

	c.JSON(http.StatusOK, values)
}

// Provinces handles GET /cases/provinces.
func (h *FilterHandler) Provinces(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	values, err := h.service.ListProvinces(c.Request.Context(), query.Filter{
		Center:   req.Center,
		Category: req.Category,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Search:   req.Q,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to query provinces", err)
		return
	}

	c.JSON(http.StatusOK, values)
}

// Amphurs handles GET /cases/amphurs.
func (h *FilterHandler) Amphurs(c *gin.Context) {
	var req AmphursRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	values, err := h.service.ListAmphurs(c.Request.Context(), query.Filter{
		Center:   req.Center,
		Category: req.Category,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Search:   req.Q,
	}, req.Province)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to query amphurs", err)
		return
	}

	c.JSON(http.StatusOK, values)
}

// Tambols handles GET /cases/tambols.
func (h *FilterHandler) Tambols(c *gin.Context) {
	var req TambolsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	values, err := h.service.ListTambols(c.Request.Context(), query.Filter{
		Center:   req.Center,
		Category: req.Category,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Search:   req.Q,
	}, req.Amphur, req.Province)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to query tambols", err)
		return
	}

	c.JSON(http.StatusOK, values)
}
