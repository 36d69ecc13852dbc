package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leakwatch/leakwatch-api/internal/middleware"
	"github.com/leakwatch/leakwatch-api/internal/services"
)

type SyncHandler struct {
	companyService   *services.CompanyService
	syncService      *services.SyncService
	detectionService *services.DetectionService
	auditService     *services.AuditService
}

func NewSyncHandler(
	companyService *services.CompanyService,
	syncService *services.SyncService,
	detectionService *services.DetectionService,
	auditService *services.AuditService,
) *SyncHandler {
	return &SyncHandler{
		companyService:   companyService,
		syncService:      syncService,
		detectionService: detectionService,
		auditService:     auditService,
	}
}

// @Summary Sync Company
// @Description Pulls invoices and payments from the connected ledger
// @Tags Sync
// @Produce json
// @Param company_id path int true "Company ID"
// @Success 200 {object} services.FullSyncResult
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /companies/{company_id}/sync [post]
func (h *SyncHandler) Sync(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("company_id"), 10, 32)

	company, err := h.companyService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return
	}

	if !company.CanSync() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Company is not connected to a ledger"})
		return
	}

	result := h.syncService.FullSync(c.Request.Context(), company)

	details := fmt.Sprintf("invoices=%d payments=%d", result.Invoices.Count, result.Payments.Count)
	h.auditService.Log(c.Request.Context(), middleware.GetUserID(c), services.AuditActionSync, "Company", company.ID, details, c.ClientIP(), c.Request.UserAgent())

	status := http.StatusOK
	if !result.Succeeded() {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

// @Summary Detect Leaks
// @Description Runs all leak detectors against the company's synced data
// @Tags Sync
// @Produce json
// @Param company_id path int true "Company ID"
// @Success 200 {object} services.DetectionResult
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /companies/{company_id}/detect [post]
func (h *SyncHandler) Detect(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("company_id"), 10, 32)

	company, err := h.companyService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return
	}

	result := h.detectionService.DetectLeaks(c.Request.Context(), company.ID)

	details := fmt.Sprintf("total=%d", result.Total)
	h.auditService.Log(c.Request.Context(), middleware.GetUserID(c), services.AuditActionDetect, "Company", company.ID, details, c.ClientIP(), c.Request.UserAgent())

	c.JSON(http.StatusOK, result)
}
