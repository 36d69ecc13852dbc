package models

import (
	"time"
)

// Payment represents money received against a company's receivables.
// Ledger-synced payments carry an external id and may reference the
// invoice they settle; unlinked payments are valid (not every ledger
// payment maps to a known invoice).
type Payment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CompanyID     uint      `gorm:"not null;index;uniqueIndex:idx_payments_company_external" json:"company_id"`
	ExternalID    *string   `gorm:"uniqueIndex:idx_payments_company_external" json:"external_id"`
	InvoiceID     *uint     `gorm:"index" json:"invoice_id"`
	PaymentNumber string    `gorm:"index" json:"payment_number"`
	CustomerID    string    `gorm:"index" json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	Amount        float64   `gorm:"type:decimal;not null" json:"amount"`
	Currency      string    `gorm:"default:USD;not null" json:"currency"`
	PaymentDate   time.Time `gorm:"index" json:"payment_date"`
	Method        string    `gorm:"default:other" json:"method"`
	Reference     *string   `json:"reference"`
	Status        string    `gorm:"default:completed" json:"status"`
	Source        string    `gorm:"default:manual" json:"source"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Associations
	Company Company  `gorm:"foreignKey:CompanyID" json:"-"`
	Invoice *Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Payment method constants
const (
	PaymentMethodACH   = "ach"
	PaymentMethodWire  = "wire"
	PaymentMethodCheck = "check"
	PaymentMethodOther = "other"
)

// Payment status constants
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
	PaymentStatusFailed    = "failed"
)

// PaymentResponse is the JSON response format for payments
type PaymentResponse struct {
	ID            uint      `json:"id"`
	CompanyID     uint      `json:"company_id"`
	ExternalID    *string   `json:"external_id"`
	InvoiceID     *uint     `json:"invoice_id"`
	PaymentNumber string    `json:"payment_number"`
	CustomerID    string    `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentDate   time.Time `json:"payment_date"`
	Method        string    `json:"method"`
	Reference     *string   `json:"reference"`
	Status        string    `json:"status"`
	Source        string    `json:"source"`
}

// ToResponse converts Payment to PaymentResponse
func (p *Payment) ToResponse() PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		CompanyID:     p.CompanyID,
		ExternalID:    p.ExternalID,
		InvoiceID:     p.InvoiceID,
		PaymentNumber: p.PaymentNumber,
		CustomerID:    p.CustomerID,
		CustomerName:  p.CustomerName,
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentDate:   p.PaymentDate,
		Method:        p.Method,
		Reference:     p.Reference,
		Status:        p.Status,
		Source:        p.Source,
	}
}
