package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/crimesense/casesearch/api/internal/errors"
	"github.com/crimesense/casesearch/api/internal/query"
	"github.com/crimesense/casesearch/api/internal/repository"
	"github.com/crimesense/casesearch/api/internal/services"
)

// CaseHandler handles case listing and detail HTTP requests.
type CaseHandler struct {
	service services.CaseService
}

// NewCaseHandler creates a new CaseHandler instance.
func NewCaseHandler(service services.CaseService) *CaseHandler {
	return &CaseHandler{
		service: service,
	}
}

// ListCasesRequest represents the query parameters for the case list endpoint.
type ListCasesRequest struct {
	Limit    int    `form:"limit,default=100" binding:"min=1,max=5000"`
	Offset   int    `form:"offset,default=0" binding:"min=0"`
	Center   string `form:"center"`
	Category string `form:"category"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	Q        string `form:"q"`
	Province string `form:"province"`
	Amphur   string `form:"amphur"`
	Tambol   string `form:"tambol"`
}

// List handles GET /cases.
// It returns a filtered page of cases plus the total matching row count.
func (h *CaseHandler) List(c *gin.Context) {
	var req ListCasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	list, err := h.service.ListCases(c.Request.Context(), repository.ListParams{
		Filter: query.Filter{
			Center:   req.Center,
			Category: req.Category,
			DateFrom: req.DateFrom,
			DateTo:   req.DateTo,
			Search:   req.Q,
		},
		Province: req.Province,
		Amphur:   req.Amphur,
		Tambol:   req.Tambol,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidLimit) ||
			errors.Is(err, services.ErrInvalidOffset) ||
			errors.Is(err, services.ErrInvalidDateRange) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to query cases", err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Detail handles GET /cases/:case_id.
// It returns the full row for the first case whose identifier matches.
func (h *CaseHandler) Detail(c *gin.Context) {
	caseID := c.Param("case_id")

	record, err := h.service.GetCase(c.Request.Context(), caseID)
	if err != nil {
		if errors.Is(err, services.ErrCaseNotFound) {
			apierrors.NotFound(c, "Case not found")
			return
		}
		if errors.Is(err, repository.ErrNoIdentifierColumn) {
			apierrors.ConfigurationError(c, err.Error(), err)
			return
		}
		apierrors.InternalServerError(c, "Failed to query case", err)
		return
	}

	c.JSON(http.StatusOK, record)
}
