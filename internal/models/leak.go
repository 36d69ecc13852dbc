package models

import (
	"time"
)

// Leak represents a detected instance of probable revenue loss. The engine
// creates leaks in the detected status; the recovery workflow drives them
// to a terminal status (recovered or written_off). At most one leak per
// (company, leak_type, source_reference) may be open at a time; the dedup
// guard in the detection engine enforces this, not a database constraint.
type Leak struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CompanyID         uint      `gorm:"not null;index" json:"company_id"`
	LeakType          string    `gorm:"not null;index" json:"leak_type"`
	Status            string    `gorm:"default:detected;index" json:"status"`
	Priority          string    `gorm:"default:medium;index" json:"priority"`
	Amount            float64   `gorm:"type:decimal;not null" json:"amount"`
	Confidence        int       `gorm:"default:70" json:"confidence"`
	SourceReference   string    `gorm:"not null;index" json:"source_reference"`
	RootCause         string    `gorm:"type:text" json:"root_cause"`
	Description       string    `gorm:"type:text" json:"description"`
	RecommendedAction string    `gorm:"type:text" json:"recommended_action"`
	AgingDays         int       `gorm:"default:0" json:"aging_days"`
	DetectedAt        time.Time `json:"detected_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Associations
	Company Company `gorm:"foreignKey:CompanyID" json:"-"`
}

// TableName specifies the table name for Leak
func (Leak) TableName() string {
	return "leaks"
}

// Leak type constants. The detection engine produces the first four;
// the remaining types are reserved for manually filed leaks.
const (
	LeakTypeMissingPayment        = "missing_payment"
	LeakTypeUnderBilling          = "under_billing"
	LeakTypeFailedRenewal         = "failed_renewal"
	LeakTypeUncollectedReceivable = "uncollected_receivable"
	LeakTypeDuplicateCredit       = "duplicate_credit"
	LeakTypePricingMismatch       = "pricing_mismatch"
	LeakTypeContractViolation     = "contract_violation"
)

// Leak status constants
const (
	LeakStatusDetected      = "detected"
	LeakStatusInvestigating = "investigating"
	LeakStatusInRecovery    = "in_recovery"
	LeakStatusRecovered     = "recovered"
	LeakStatusWrittenOff    = "written_off"
)

// Leak priority constants
const (
	LeakPriorityLow      = "low"
	LeakPriorityMedium   = "medium"
	LeakPriorityHigh     = "high"
	LeakPriorityCritical = "critical"
)

// IsTerminal returns true once a leak has left the recovery pipeline.
// Terminal leaks do not block re-detection for the same dedup key.
func (l *Leak) IsTerminal() bool {
	return l.Status == LeakStatusRecovered || l.Status == LeakStatusWrittenOff
}

// LeakResponse is the JSON response format for leaks
type LeakResponse struct {
	ID                uint      `json:"id"`
	CompanyID         uint      `json:"company_id"`
	LeakType          string    `json:"leak_type"`
	Status            string    `json:"status"`
	Priority          string    `json:"priority"`
	Amount            float64   `json:"amount"`
	Confidence        int       `json:"confidence"`
	SourceReference   string    `json:"source_reference"`
	RootCause         string    `json:"root_cause"`
	Description       string    `json:"description"`
	RecommendedAction string    `json:"recommended_action"`
	AgingDays         int       `json:"aging_days"`
	DetectedAt        time.Time `json:"detected_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ToResponse converts Leak to LeakResponse
func (l *Leak) ToResponse() LeakResponse {
	return LeakResponse{
		ID:                l.ID,
		CompanyID:         l.CompanyID,
		LeakType:          l.LeakType,
		Status:            l.Status,
		Priority:          l.Priority,
		Amount:            l.Amount,
		Confidence:        l.Confidence,
		SourceReference:   l.SourceReference,
		RootCause:         l.RootCause,
		Description:       l.Description,
		RecommendedAction: l.RecommendedAction,
		AgingDays:         l.AgingDays,
		DetectedAt:        l.DetectedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}
