package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/leakwatch/leakwatch-api/internal/repository"
	"github.com/leakwatch/leakwatch-api/internal/services"
)

type CompanyHandler struct {
	companyService *services.CompanyService
}

func NewCompanyHandler(companyService *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// @Summary List Companies
// @Description Get a paginated list of companies
// @Tags Companies
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search term"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /companies [get]
func (h *CompanyHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")

	companies, total, err := h.companyService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, company := range companies {
		responses = append(responses, company.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"companies": responses, "pagination": gin.H{"total": total}})
}

// @Summary Get Company
// @Description Get a company by ID
// @Tags Companies
// @Accept json
// @Produce json
// @Param company_id path int true "Company ID"
// @Success 200 {object} models.CompanyResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /companies/{company_id} [get]
func (h *CompanyHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("company_id"), 10, 32)
	company, err := h.companyService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": company.ToResponse()})
}

// @Summary Create Company
// @Description Create a new company
// @Tags Companies
// @Accept json
// @Produce json
// @Param request body models.Company true "Company Data"
// @Success 201 {object} models.CompanyResponse
// @Security BearerAuth
// @Router /companies [post]
func (h *CompanyHandler) Create(c *gin.Context) {
	var company models.Company
	if err := BindNestedOrFlat(c, "company", &company); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.companyService.Create(c.Request.Context(), &company); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"company": company.ToResponse()})
}

// @Summary Update Company
// @Description Update an existing company
// @Tags Companies
// @Accept json
// @Produce json
// @Param company_id path int true "Company ID"
// @Param request body models.Company true "Company Data"
// @Success 200 {object} models.CompanyResponse
// @Security BearerAuth
// @Router /companies/{company_id} [put]
func (h *CompanyHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("company_id"), 10, 32)

	company, err := h.companyService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return
	}

	if err := BindNestedOrFlat(c, "company", company); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	company.ID = uint(id)

	if err := h.companyService.Update(c.Request.Context(), company); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"company": company.ToResponse()})
}

// @Summary Connect Ledger
// @Description Begin the OAuth flow that connects the company to the external ledger
// @Tags Companies
// @Produce json
// @Param company_id path int true "Company ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /companies/{company_id}/ledger/connect [get]
func (h *CompanyHandler) ConnectLedger(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("company_id"), 10, 32)

	authorizeURL, err := h.companyService.BeginLedgerConnect(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authorize_url": authorizeURL})
}

// @Summary Ledger OAuth Callback
// @Description Completes the OAuth flow after the ledger redirects back
// @Tags Companies
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "State token"
// @Param realmId query string true "Ledger realm ID"
// @Success 200 {object} models.CompanyResponse
// @Failure 400 {object} map[string]string
// @Router /ledger/callback [get]
func (h *CompanyHandler) LedgerCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	realmID := c.Query("realmId")

	if code == "" || state == "" || realmID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code, state and realmId are required"})
		return
	}

	company, err := h.companyService.CompleteLedgerConnect(c.Request.Context(), state, code, realmID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOAuthCode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired authorization request"})
			return
		}
		if errors.Is(err, services.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "This ledger account is already connected to another company"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"company": company.ToResponse()})
}
