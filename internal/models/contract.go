package models

import (
	"math"
	"time"
)

// Contract represents a recurring-revenue agreement with a client. Contracts
// are read-only inputs to leak detection; their lifecycle is owned by the
// contract-management flows.
type Contract struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	CompanyID            uint      `gorm:"not null;index" json:"company_id"`
	ContractNumber       string    `gorm:"not null;index" json:"contract_number"`
	ClientName           string    `gorm:"not null;index" json:"client_name"`
	Status               string    `gorm:"default:draft;index" json:"status"`
	StartDate            time.Time `gorm:"index" json:"start_date"`
	EndDate              time.Time `gorm:"index" json:"end_date"`
	BaseFee              float64   `gorm:"type:decimal;not null" json:"base_fee"`
	CommissionPercentage float64   `gorm:"type:decimal;default:0" json:"commission_percentage"`
	BillingFrequency     string    `gorm:"default:monthly" json:"billing_frequency"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Associations
	Company Company `gorm:"foreignKey:CompanyID" json:"-"`
}

// TableName specifies the table name for Contract
func (Contract) TableName() string {
	return "contracts"
}

// Contract status constants
const (
	ContractStatusDraft     = "draft"
	ContractStatusActive    = "active"
	ContractStatusExpired   = "expired"
	ContractStatusRenewed   = "renewed"
	ContractStatusCancelled = "cancelled"
)

// Billing frequency constants
const (
	BillingFrequencyMonthly   = "monthly"
	BillingFrequencyQuarterly = "quarterly"
	BillingFrequencyAnnually  = "annually"
)

// DurationDays returns the contract span in whole days.
func (c *Contract) DurationDays() int {
	return int(c.EndDate.Sub(c.StartDate).Hours() / 24)
}

// BillingPeriods returns how many billing cycles fit the contract span.
// Monthly contracts bill every ~30 days, quarterly every three of those,
// and annual contracts bill once.
func (c *Contract) BillingPeriods() int {
	monthly := int(math.Ceil(float64(c.DurationDays()) / 30.0))
	if monthly < 1 {
		monthly = 1
	}
	switch c.BillingFrequency {
	case BillingFrequencyMonthly:
		return monthly
	case BillingFrequencyQuarterly:
		return int(math.Ceil(float64(monthly) / 3.0))
	default:
		return 1
	}
}

// ExpectedBilling returns what the contract should have produced in
// invoices over its full span.
func (c *Contract) ExpectedBilling() float64 {
	return c.BaseFee * float64(c.BillingPeriods())
}

// ContractResponse is the JSON response format for contracts
type ContractResponse struct {
	ID                   uint      `json:"id"`
	CompanyID            uint      `json:"company_id"`
	ContractNumber       string    `json:"contract_number"`
	ClientName           string    `json:"client_name"`
	Status               string    `json:"status"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	BaseFee              float64   `json:"base_fee"`
	CommissionPercentage float64   `json:"commission_percentage"`
	BillingFrequency     string    `json:"billing_frequency"`
	ExpectedBilling      float64   `json:"expected_billing"`
}

// ToResponse converts Contract to ContractResponse
func (c *Contract) ToResponse() ContractResponse {
	return ContractResponse{
		ID:                   c.ID,
		CompanyID:            c.CompanyID,
		ContractNumber:       c.ContractNumber,
		ClientName:           c.ClientName,
		Status:               c.Status,
		StartDate:            c.StartDate,
		EndDate:              c.EndDate,
		BaseFee:              c.BaseFee,
		CommissionPercentage: c.CommissionPercentage,
		BillingFrequency:     c.BillingFrequency,
		ExpectedBilling:      c.ExpectedBilling(),
	}
}
