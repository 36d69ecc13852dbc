package repository

import (
	"context"
	"errors"

	"github.com/leakwatch/leakwatch-api/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Payment, error)
	FindByExternalID(ctx context.Context, companyID uint, externalID string) (*models.Payment, error)
	FindByInvoice(ctx context.Context, invoiceID uint) ([]models.Payment, error)
	FindByCompany(ctx context.Context, companyID uint, query *ListQuery) ([]models.Payment, int64, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	UpsertByExternalID(ctx context.Context, payment *models.Payment) error
	CountByCompany(ctx context.Context, companyID uint) (int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByExternalID(ctx context.Context, companyID uint, externalID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND external_id = ?", companyID, externalID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByInvoice(ctx context.Context, invoiceID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("payment_date ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) FindByCompany(ctx context.Context, companyID uint, query *ListQuery) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Payment{}).Where("company_id = ?", companyID)

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("payment_number ILIKE ? OR customer_name ILIKE ?", search, search)
	}
	if query.Filters["method"] != "" {
		db = db.Where("method = ?", query.Filters["method"])
	}

	db.Count(&total)

	db = db.Order("payment_date DESC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&payments).Error
	return payments, total, err
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

// UpsertByExternalID inserts or overwrites the payment keyed by
// (company, external id), mirroring the invoice upsert semantics.
func (r *paymentRepository) UpsertByExternalID(ctx context.Context, payment *models.Payment) error {
	if payment.ExternalID == nil {
		return r.Create(ctx, payment)
	}

	var existing models.Payment
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND external_id = ?", payment.CompanyID, *payment.ExternalID).
		First(&existing).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if createErr := r.db.WithContext(ctx).Create(payment).Error; createErr != nil {
				if !isDuplicateKeyError(createErr, "idx_payments_company_external") {
					return createErr
				}
				return r.UpsertByExternalID(ctx, payment)
			}
			return nil
		}
		return err
	}

	payment.ID = existing.ID
	payment.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *paymentRepository) CountByCompany(ctx context.Context, companyID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("company_id = ?", companyID).
		Count(&count).Error
	return count, err
}
