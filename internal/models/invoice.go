package models

import (
	"time"
)

// Invoice represents a receivable synchronized from the external ledger
// or entered manually. ExternalID is nil for manual invoices; when present,
// (company_id, external_id) is unique and drives the sync upsert.
type Invoice struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CompanyID     uint       `gorm:"not null;index;uniqueIndex:idx_invoices_company_external" json:"company_id"`
	ExternalID    *string    `gorm:"uniqueIndex:idx_invoices_company_external" json:"external_id"`
	InvoiceNumber string     `gorm:"not null;index" json:"invoice_number"`
	CustomerID    string     `gorm:"index" json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	Amount        float64    `gorm:"type:decimal;not null" json:"amount"`
	Currency      string     `gorm:"default:USD;not null" json:"currency"`
	IssueDate     time.Time  `gorm:"index" json:"issue_date"`
	DueDate       time.Time  `gorm:"index" json:"due_date"`
	PaidDate      *time.Time `json:"paid_date"`
	TotalPaid     float64    `gorm:"type:decimal;default:0" json:"total_paid"`
	Balance       float64    `gorm:"type:decimal;default:0" json:"balance"`
	Status        string     `gorm:"default:draft;index" json:"status"`
	LineItems     *string    `gorm:"type:text" json:"line_items"` // JSON array of line items
	Source        string     `gorm:"default:manual" json:"source"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Associations
	Company  Company   `gorm:"foreignKey:CompanyID" json:"-"`
	Payments []Payment `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// TableName specifies the table name for Invoice
func (Invoice) TableName() string {
	return "invoices"
}

// Invoice status constants
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusViewed    = "viewed"
	InvoiceStatusPartial   = "partial"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Invoice source constants
const (
	SourceManual     = "manual"
	SourceQuickBooks = "quickbooks"
)

// IsCollectible returns true if the invoice status still allows collection
// activity. Draft, paid and cancelled invoices are never leak candidates.
func (i *Invoice) IsCollectible() bool {
	switch i.Status {
	case InvoiceStatusSent, InvoiceStatusViewed, InvoiceStatusPartial, InvoiceStatusOverdue:
		return true
	}
	return false
}

// DaysOverdue returns full days elapsed past the due date, zero if not due yet.
func (i *Invoice) DaysOverdue(now time.Time) int {
	if !now.After(i.DueDate) {
		return 0
	}
	return int(now.Sub(i.DueDate).Hours() / 24)
}

// DeriveInvoiceState computes the balance and status an invoice should carry
// after a write. Status derivation is deterministic: paid when nothing is
// owed, partial when partly paid, overdue when past due with an open balance.
// A current status outside those rules (e.g. viewed, cancelled) is preserved.
func DeriveInvoiceState(amount, totalPaid float64, dueDate, now time.Time, current string) (status string, balance float64) {
	balance = amount - totalPaid
	status = current
	if status == "" {
		status = InvoiceStatusSent
	}

	switch {
	case balance <= 0:
		status = InvoiceStatusPaid
	case totalPaid > 0 && balance < amount:
		status = InvoiceStatusPartial
	case now.After(dueDate) && balance > 0:
		status = InvoiceStatusOverdue
	}
	return status, balance
}

// InvoiceResponse is the JSON response format for invoices
type InvoiceResponse struct {
	ID            uint       `json:"id"`
	CompanyID     uint       `json:"company_id"`
	ExternalID    *string    `json:"external_id"`
	InvoiceNumber string     `json:"invoice_number"`
	CustomerID    string     `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	IssueDate     time.Time  `json:"issue_date"`
	DueDate       time.Time  `json:"due_date"`
	PaidDate      *time.Time `json:"paid_date"`
	TotalPaid     float64    `json:"total_paid"`
	Balance       float64    `json:"balance"`
	Status        string     `json:"status"`
	Source        string     `json:"source"`
	DaysOverdue   int        `json:"days_overdue"`
}

// ToResponse converts Invoice to InvoiceResponse
func (i *Invoice) ToResponse() InvoiceResponse {
	return InvoiceResponse{
		ID:            i.ID,
		CompanyID:     i.CompanyID,
		ExternalID:    i.ExternalID,
		InvoiceNumber: i.InvoiceNumber,
		CustomerID:    i.CustomerID,
		CustomerName:  i.CustomerName,
		Amount:        i.Amount,
		Currency:      i.Currency,
		IssueDate:     i.IssueDate,
		DueDate:       i.DueDate,
		PaidDate:      i.PaidDate,
		TotalPaid:     i.TotalPaid,
		Balance:       i.Balance,
		Status:        i.Status,
		Source:        i.Source,
		DaysOverdue:   i.DaysOverdue(time.Now()),
	}
}
