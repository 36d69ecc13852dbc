package repository

import (
	"context"
	"time"

	"github.com/leakwatch/leakwatch-api/internal/models"

	"gorm.io/gorm"
)

// CompanyRepository defines the interface for company data access
type CompanyRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Company, error)
	FindByRealmID(ctx context.Context, realmID string) (*models.Company, error)
	FindConnected(ctx context.Context) ([]models.Company, error)
	Create(ctx context.Context, company *models.Company) error
	Update(ctx context.Context, company *models.Company) error
	UpdateTokens(ctx context.Context, companyID uint, accessToken, refreshToken string, expiresAt time.Time) error
	UpdateLastSyncAt(ctx context.Context, companyID uint, at time.Time) error
	List(ctx context.Context, query *ListQuery) ([]models.Company, int64, error)
}

type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) FindByID(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) FindByRealmID(ctx context.Context, realmID string) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).
		Where("ledger_realm_id = ?", realmID).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// FindConnected returns all companies with a usable ledger connection,
// for the scheduled sync cycle.
func (r *companyRepository) FindConnected(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := r.db.WithContext(ctx).
		Where("ledger_connected = ? AND status = ?", true, models.CompanyStatusActive).
		Find(&companies).Error
	return companies, err
}

func (r *companyRepository) Create(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *companyRepository) Update(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

// UpdateTokens persists a rotated token pair in a single update so the
// credential block is never left half-written.
func (r *companyRepository) UpdateTokens(ctx context.Context, companyID uint, accessToken, refreshToken string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", companyID).
		Updates(map[string]interface{}{
			"access_token":     accessToken,
			"refresh_token":    refreshToken,
			"token_expires_at": expiresAt,
		}).Error
}

func (r *companyRepository) UpdateLastSyncAt(ctx context.Context, companyID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", companyID).
		Update("last_sync_at", at).Error
}

func (r *companyRepository) List(ctx context.Context, query *ListQuery) ([]models.Company, int64, error) {
	var companies []models.Company
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Company{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("name ILIKE ? OR email ILIKE ?", search, search)
	}
	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}
	if query.Filters["ledger_connected"] != "" {
		db = db.Where("ledger_connected = ?", query.Filters["ledger_connected"] == "true")
	}

	db.Count(&total)

	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("created_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&companies).Error
	return companies, total, err
}
