package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leakwatch/leakwatch-api/internal/middleware"
	"github.com/leakwatch/leakwatch-api/internal/repository"
	"github.com/leakwatch/leakwatch-api/internal/services"
)

type LeakHandler struct {
	leakService   *services.LeakService
	exportService *services.ExportService
	auditService  *services.AuditService
}

func NewLeakHandler(leakService *services.LeakService, exportService *services.ExportService, auditService *services.AuditService) *LeakHandler {
	return &LeakHandler{
		leakService:   leakService,
		exportService: exportService,
		auditService:  auditService,
	}
}

// @Summary List Leaks
// @Description Get a paginated list of leaks for a company
// @Tags Leaks
// @Produce json
// @Param company_id path int true "Company ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param leak_type query string false "Filter by leak type"
// @Param priority query string false "Filter by priority"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /companies/{company_id}/leaks [get]
func (h *LeakHandler) Index(c *gin.Context) {
	companyID, _ := strconv.ParseUint(c.Param("company_id"), 10, 32)

	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	for _, key := range []string{"status", "leak_type", "priority"} {
		if value := c.Query(key); value != "" {
			query.Filters[key] = value
		}
	}

	leaks, total, err := h.leakService.FindByCompany(c.Request.Context(), uint(companyID), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, leak := range leaks {
		responses = append(responses, leak.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"leaks": responses, "pagination": gin.H{"total": total}})
}

// @Summary Get Leak
// @Description Get a leak by ID
// @Tags Leaks
// @Produce json
// @Param leak_id path int true "Leak ID"
// @Success 200 {object} models.LeakResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /leaks/{leak_id} [get]
func (h *LeakHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("leak_id"), 10, 32)
	leak, err := h.leakService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Leak not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leak": leak.ToResponse()})
}

// @Summary Leak Summary
// @Description Aggregated open-leak counts and amount at risk for a company
// @Tags Leaks
// @Produce json
// @Param company_id path int true "Company ID"
// @Success 200 {object} repository.LeakSummary
// @Security BearerAuth
// @Router /companies/{company_id}/leaks/summary [get]
func (h *LeakHandler) Summary(c *gin.Context) {
	companyID, _ := strconv.ParseUint(c.Param("company_id"), 10, 32)

	summary, err := h.leakService.Summary(c.Request.Context(), uint(companyID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

type TransitionRequest struct {
	Event string `json:"event" binding:"required"`
}

// @Summary Transition Leak
// @Description Applies a recovery workflow event (investigate, start_recovery, recover, write_off, reopen)
// @Tags Leaks
// @Accept json
// @Produce json
// @Param leak_id path int true "Leak ID"
// @Param request body TransitionRequest true "Transition Event"
// @Success 200 {object} models.LeakResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /leaks/{leak_id}/transition [post]
func (h *LeakHandler) Transition(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("leak_id"), 10, 32)

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event is required"})
		return
	}

	leak, err := h.leakService.Transition(c.Request.Context(), uint(id), req.Event)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Leak not found"})
			return
		}
		if errors.Is(err, services.ErrInvalidState) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	details := fmt.Sprintf("event=%s status=%s", req.Event, leak.Status)
	h.auditService.Log(c.Request.Context(), middleware.GetUserID(c), services.AuditActionTransition, "Leak", leak.ID, details, c.ClientIP(), c.Request.UserAgent())

	c.JSON(http.StatusOK, gin.H{"leak": leak.ToResponse()})
}

// @Summary Export Leaks
// @Description Download the company's leak report as csv, xlsx or pdf
// @Tags Leaks
// @Produce octet-stream
// @Param company_id path int true "Company ID"
// @Param format query string false "Export format" Enums(csv, xlsx, pdf) default(csv)
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /companies/{company_id}/leaks/export [get]
func (h *LeakHandler) Export(c *gin.Context) {
	companyID, _ := strconv.ParseUint(c.Param("company_id"), 10, 32)
	format := c.DefaultQuery("format", "csv")

	var (
		data        []byte
		filename    string
		contentType string
		err         error
	)

	switch format {
	case "csv":
		data, filename, err = h.exportService.ExportCSV(c.Request.Context(), uint(companyID))
		contentType = "text/csv"
	case "xlsx":
		data, filename, err = h.exportService.ExportXLSX(c.Request.Context(), uint(companyID))
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		data, filename, err = h.exportService.ExportPDF(c.Request.Context(), uint(companyID))
		contentType = "application/pdf"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported format, use csv, xlsx or pdf"})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, contentType, data)
}
