package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Company      CompanyRepository
	Invoice      InvoiceRepository
	Payment      PaymentRepository
	Contract     ContractRepository
	Leak         LeakRepository
	User         UserRepository
	Notification NotificationRepository
	RefreshToken RefreshTokenRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Company:      NewCompanyRepository(db),
		Invoice:      NewInvoiceRepository(db),
		Payment:      NewPaymentRepository(db),
		Contract:     NewContractRepository(db),
		Leak:         NewLeakRepository(db),
		User:         NewUserRepository(db),
		Notification: NewNotificationRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
	}
}

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// isDuplicateKeyError reports whether err is a Postgres unique violation on
// the named constraint.
func isDuplicateKeyError(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, constraint)
	}
	return false
}
