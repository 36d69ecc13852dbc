package repository

import (
	"context"
	"errors"
	"time"

	"github.com/leakwatch/leakwatch-api/internal/models"

	"gorm.io/gorm"
)

// InvoiceRepository defines the interface for invoice data access
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Invoice, error)
	FindByExternalID(ctx context.Context, companyID uint, externalID string) (*models.Invoice, error)
	FindCollectible(ctx context.Context, companyID uint) ([]models.Invoice, error)
	FindIssuedBetween(ctx context.Context, companyID uint, from, to time.Time) ([]models.Invoice, error)
	FindByCompany(ctx context.Context, companyID uint, query *ListQuery) ([]models.Invoice, int64, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
	UpsertByExternalID(ctx context.Context, invoice *models.Invoice) error
	CountByCompany(ctx context.Context, companyID uint) (int64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByExternalID(ctx context.Context, companyID uint, externalID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND external_id = ?", companyID, externalID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindCollectible returns invoices that still carry an open balance in a
// collectible status. These are the candidates for the receivable detectors.
func (r *invoiceRepository) FindCollectible(ctx context.Context, companyID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND status IN ? AND balance > 0",
			companyID,
			[]string{models.InvoiceStatusSent, models.InvoiceStatusViewed, models.InvoiceStatusPartial, models.InvoiceStatusOverdue}).
		Order("due_date ASC").
		Find(&invoices).Error
	return invoices, err
}

// FindIssuedBetween returns invoices issued inside the [from, to] window,
// used to total billing against a contract span.
func (r *invoiceRepository) FindIssuedBetween(ctx context.Context, companyID uint, from, to time.Time) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND issue_date >= ? AND issue_date <= ?", companyID, from, to).
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) FindByCompany(ctx context.Context, companyID uint, query *ListQuery) ([]models.Invoice, int64, error) {
	var invoices []models.Invoice
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("company_id = ?", companyID)

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("invoice_number ILIKE ? OR customer_name ILIKE ?", search, search)
	}
	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}

	db.Count(&total)

	db = db.Order("due_date DESC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&invoices).Error
	return invoices, total, err
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

// UpsertByExternalID inserts the invoice or, if one already exists for
// (company, external id), overwrites all mapped fields on the stored row.
// Re-running a sync with unchanged source data is therefore idempotent.
func (r *invoiceRepository) UpsertByExternalID(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ExternalID == nil {
		return r.Create(ctx, invoice)
	}

	var existing models.Invoice
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND external_id = ?", invoice.CompanyID, *invoice.ExternalID).
		First(&existing).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if createErr := r.db.WithContext(ctx).Create(invoice).Error; createErr != nil {
				// A concurrent sync may have inserted the row between the
				// lookup and the create; fall through to the update path.
				if !isDuplicateKeyError(createErr, "idx_invoices_company_external") {
					return createErr
				}
				return r.UpsertByExternalID(ctx, invoice)
			}
			return nil
		}
		return err
	}

	invoice.ID = existing.ID
	invoice.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(invoice).Error
}

func (r *invoiceRepository) CountByCompany(ctx context.Context, companyID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("company_id = ?", companyID).
		Count(&count).Error
	return count, err
}
