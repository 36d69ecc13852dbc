package models

import (
	"time"
)

// Company represents a tenant on the platform. Each company owns its own
// invoices, payments, contracts and leaks, plus the credential block used
// to talk to its external accounting ledger.
type Company struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"index" json:"email"`
	Currency string `gorm:"default:USD;not null" json:"currency"`
	Timezone string `gorm:"default:UTC;not null" json:"timezone"`
	Status   string `gorm:"default:active;index" json:"status"`

	// Ledger credential block. Mutated only by the TokenService and the
	// OAuth callback handler. Tokens are stored encrypted at rest.
	LedgerConnected bool       `gorm:"default:false;index" json:"ledger_connected"`
	LedgerRealmID   *string    `gorm:"index" json:"ledger_realm_id"`
	AccessToken     *string    `gorm:"type:text" json:"-"`
	RefreshToken    *string    `gorm:"type:text" json:"-"`
	TokenExpiresAt  *time.Time `json:"-"`
	LastSyncAt      *time.Time `json:"last_sync_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Invoices  []Invoice  `gorm:"foreignKey:CompanyID" json:"invoices,omitempty"`
	Payments  []Payment  `gorm:"foreignKey:CompanyID" json:"payments,omitempty"`
	Contracts []Contract `gorm:"foreignKey:CompanyID" json:"contracts,omitempty"`
	Leaks     []Leak     `gorm:"foreignKey:CompanyID" json:"leaks,omitempty"`
}

// TableName specifies the table name for Company
func (Company) TableName() string {
	return "companies"
}

// Company status constants
const (
	CompanyStatusActive    = "active"
	CompanyStatusSuspended = "suspended"
)

// TokenValid returns true if the stored access token has not expired yet.
func (c *Company) TokenValid(now time.Time) bool {
	if c.AccessToken == nil || c.TokenExpiresAt == nil {
		return false
	}
	return c.TokenExpiresAt.After(now)
}

// CanSync returns true if the company has a usable ledger connection.
func (c *Company) CanSync() bool {
	return c.LedgerConnected && c.LedgerRealmID != nil && c.RefreshToken != nil
}

// CompanyResponse is the JSON response format for companies
type CompanyResponse struct {
	ID              uint       `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Currency        string     `json:"currency"`
	Timezone        string     `json:"timezone"`
	Status          string     `json:"status"`
	LedgerConnected bool       `json:"ledger_connected"`
	LedgerRealmID   *string    `json:"ledger_realm_id"`
	LastSyncAt      *time.Time `json:"last_sync_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ToResponse converts Company to CompanyResponse
func (c *Company) ToResponse() CompanyResponse {
	return CompanyResponse{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Currency:        c.Currency,
		Timezone:        c.Timezone,
		Status:          c.Status,
		LedgerConnected: c.LedgerConnected,
		LedgerRealmID:   c.LedgerRealmID,
		LastSyncAt:      c.LastSyncAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
