package repository

import (
	"context"
	"errors"

	"github.com/leakwatch/leakwatch-api/internal/models"

	"gorm.io/gorm"
)

// LeakSummary aggregates open leaks by priority for a company.
type LeakSummary struct {
	TotalOpen   int64   `json:"total_open"`
	TotalAmount float64 `json:"total_amount"`
	Critical    int64   `json:"critical"`
	High        int64   `json:"high"`
	Medium      int64   `json:"medium"`
	Low         int64   `json:"low"`
}

// LeakRepository defines the interface for leak data access
type LeakRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Leak, error)
	FindOpenByKey(ctx context.Context, companyID uint, leakType, sourceReference string) (*models.Leak, error)
	FindByCompany(ctx context.Context, companyID uint, query *ListQuery) ([]models.Leak, int64, error)
	Create(ctx context.Context, leak *models.Leak) error
	Update(ctx context.Context, leak *models.Leak) error
	Summary(ctx context.Context, companyID uint) (*LeakSummary, error)
}

type leakRepository struct {
	db *gorm.DB
}

// NewLeakRepository creates a new leak repository
func NewLeakRepository(db *gorm.DB) LeakRepository {
	return &leakRepository{db: db}
}

func (r *leakRepository) FindByID(ctx context.Context, id uint) (*models.Leak, error) {
	var leak models.Leak
	if err := r.db.WithContext(ctx).First(&leak, id).Error; err != nil {
		return nil, err
	}
	return &leak, nil
}

// FindOpenByKey looks up the non-terminal leak for a dedup key, returning
// (nil, nil) when no open leak exists. Terminal leaks (recovered or written
// off) never match, so a resolved issue can be re-detected later.
func (r *leakRepository) FindOpenByKey(ctx context.Context, companyID uint, leakType, sourceReference string) (*models.Leak, error) {
	var leak models.Leak
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND leak_type = ? AND source_reference = ? AND status NOT IN ?",
			companyID, leakType, sourceReference,
			[]string{models.LeakStatusRecovered, models.LeakStatusWrittenOff}).
		First(&leak).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &leak, nil
}

func (r *leakRepository) FindByCompany(ctx context.Context, companyID uint, query *ListQuery) ([]models.Leak, int64, error) {
	var leaks []models.Leak
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Leak{}).Where("company_id = ?", companyID)

	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}
	if query.Filters["leak_type"] != "" {
		db = db.Where("leak_type = ?", query.Filters["leak_type"])
	}
	if query.Filters["priority"] != "" {
		db = db.Where("priority = ?", query.Filters["priority"])
	}
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("source_reference ILIKE ? OR description ILIKE ?", search, search)
	}

	db.Count(&total)

	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("detected_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&leaks).Error
	return leaks, total, err
}

func (r *leakRepository) Create(ctx context.Context, leak *models.Leak) error {
	return r.db.WithContext(ctx).Create(leak).Error
}

func (r *leakRepository) Update(ctx context.Context, leak *models.Leak) error {
	return r.db.WithContext(ctx).Save(leak).Error
}

// Summary totals open leaks by priority for the company dashboard.
func (r *leakRepository) Summary(ctx context.Context, companyID uint) (*LeakSummary, error) {
	open := []string{models.LeakStatusDetected, models.LeakStatusInvestigating, models.LeakStatusInRecovery}

	summary := &LeakSummary{}
	base := r.db.WithContext(ctx).
		Model(&models.Leak{}).
		Where("company_id = ? AND status IN ?", companyID, open)

	if err := base.Session(&gorm.Session{}).Count(&summary.TotalOpen).Error; err != nil {
		return nil, err
	}

	var result struct {
		Total float64
	}
	if err := base.Session(&gorm.Session{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Scan(&result).Error; err != nil {
		return nil, err
	}
	summary.TotalAmount = result.Total

	type priorityCount struct {
		Priority string
		Count    int64
	}
	var counts []priorityCount
	if err := base.Session(&gorm.Session{}).
		Select("priority, COUNT(*) as count").
		Group("priority").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, pc := range counts {
		switch pc.Priority {
		case models.LeakPriorityCritical:
			summary.Critical = pc.Count
		case models.LeakPriorityHigh:
			summary.High = pc.Count
		case models.LeakPriorityMedium:
			summary.Medium = pc.Count
		case models.LeakPriorityLow:
			summary.Low = pc.Count
		}
	}
	return summary, nil
}
