package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a platform operator account. Users belong to the recovery
// team, not to a tenant: analysts work leaks across all companies.
type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Email             string     `gorm:"uniqueIndex;not null" json:"email"`
	EncryptedPassword string     `gorm:"column:encrypted_password;not null" json:"-"`
	FullName          string     `json:"full_name"`
	Role              string     `gorm:"default:analyst" json:"role"`
	Status            string     `gorm:"default:active" json:"status"`
	LastLoginAt       *time.Time `json:"last_login_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Associations
	Notifications []Notification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Role constants
const (
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
)

// User status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleAnalyst
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return nil
}

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive returns true if the account can log in
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		Status:      u.Status,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
