package repository

import (
	"context"
	"time"

	"github.com/leakwatch/leakwatch-api/internal/models"

	"gorm.io/gorm"
)

// ContractRepository defines the interface for contract data access
type ContractRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Contract, error)
	FindActive(ctx context.Context, companyID uint) ([]models.Contract, error)
	FindActiveEndedBetween(ctx context.Context, companyID uint, from, to time.Time) ([]models.Contract, error)
	HasSuccessor(ctx context.Context, companyID uint, clientName string, endedAt time.Time) (bool, error)
	FindByCompany(ctx context.Context, companyID uint, query *ListQuery) ([]models.Contract, int64, error)
	Create(ctx context.Context, contract *models.Contract) error
	Update(ctx context.Context, contract *models.Contract) error
}

type contractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) FindByID(ctx context.Context, id uint) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.WithContext(ctx).First(&contract, id).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) FindActive(ctx context.Context, companyID uint) ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ?", companyID, models.ContractStatusActive).
		Find(&contracts).Error
	return contracts, err
}

// FindActiveEndedBetween returns active contracts whose end date falls in
// the [from, to] window, the renewal-check candidates.
func (r *contractRepository) FindActiveEndedBetween(ctx context.Context, companyID uint, from, to time.Time) ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ? AND end_date >= ? AND end_date <= ?",
			companyID, models.ContractStatusActive, from, to).
		Find(&contracts).Error
	return contracts, err
}

// HasSuccessor reports whether the client has another contract starting on
// or after the given end date, i.e. the expiring contract was renewed.
func (r *contractRepository) HasSuccessor(ctx context.Context, companyID uint, clientName string, endedAt time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Contract{}).
		Where("company_id = ? AND client_name = ? AND start_date >= ?", companyID, clientName, endedAt).
		Count(&count).Error
	return count > 0, err
}

func (r *contractRepository) FindByCompany(ctx context.Context, companyID uint, query *ListQuery) ([]models.Contract, int64, error) {
	var contracts []models.Contract
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Contract{}).Where("company_id = ?", companyID)

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("contract_number ILIKE ? OR client_name ILIKE ?", search, search)
	}
	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}

	db.Count(&total)

	db = db.Order("end_date DESC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&contracts).Error
	return contracts, total, err
}

func (r *contractRepository) Create(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *contractRepository) Update(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}
