package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/leakwatch/leakwatch-api/internal/ledger"
	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/leakwatch/leakwatch-api/internal/repository"
	"github.com/leakwatch/leakwatch-api/pkg/logger"
)

// Services log through the package-global logger, so it has to be
// initialized before any test in this package runs.
func TestMain(m *testing.M) {
	logger.Setup("test")
	os.Exit(m.Run())
}

type mockCompanyRepo struct {
	repository.CompanyRepository
	mockFindByID         func(ctx context.Context, id uint) (*models.Company, error)
	mockUpdate           func(ctx context.Context, company *models.Company) error
	mockUpdateTokens     func(ctx context.Context, companyID uint, accessToken, refreshToken string, expiresAt time.Time) error
	mockUpdateLastSyncAt func(ctx context.Context, companyID uint, syncedAt time.Time) error
}

func (m *mockCompanyRepo) FindByID(ctx context.Context, id uint) (*models.Company, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockCompanyRepo) Update(ctx context.Context, company *models.Company) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, company)
	}
	return nil
}

func (m *mockCompanyRepo) UpdateTokens(ctx context.Context, companyID uint, accessToken, refreshToken string, expiresAt time.Time) error {
	if m.mockUpdateTokens != nil {
		return m.mockUpdateTokens(ctx, companyID, accessToken, refreshToken, expiresAt)
	}
	return nil
}

func (m *mockCompanyRepo) UpdateLastSyncAt(ctx context.Context, companyID uint, syncedAt time.Time) error {
	if m.mockUpdateLastSyncAt != nil {
		return m.mockUpdateLastSyncAt(ctx, companyID, syncedAt)
	}
	return nil
}

type mockInvoiceRepo struct {
	repository.InvoiceRepository
	mockFindByExternalID   func(ctx context.Context, companyID uint, externalID string) (*models.Invoice, error)
	mockFindCollectible    func(ctx context.Context, companyID uint) ([]models.Invoice, error)
	mockFindIssuedBetween  func(ctx context.Context, companyID uint, from, to time.Time) ([]models.Invoice, error)
	mockUpsertByExternalID func(ctx context.Context, invoice *models.Invoice) error
}

func (m *mockInvoiceRepo) FindByExternalID(ctx context.Context, companyID uint, externalID string) (*models.Invoice, error) {
	return m.mockFindByExternalID(ctx, companyID, externalID)
}

func (m *mockInvoiceRepo) FindCollectible(ctx context.Context, companyID uint) ([]models.Invoice, error) {
	return m.mockFindCollectible(ctx, companyID)
}

func (m *mockInvoiceRepo) FindIssuedBetween(ctx context.Context, companyID uint, from, to time.Time) ([]models.Invoice, error) {
	return m.mockFindIssuedBetween(ctx, companyID, from, to)
}

func (m *mockInvoiceRepo) UpsertByExternalID(ctx context.Context, invoice *models.Invoice) error {
	return m.mockUpsertByExternalID(ctx, invoice)
}

type mockPaymentRepo struct {
	repository.PaymentRepository
	mockUpsertByExternalID func(ctx context.Context, payment *models.Payment) error
}

func (m *mockPaymentRepo) UpsertByExternalID(ctx context.Context, payment *models.Payment) error {
	return m.mockUpsertByExternalID(ctx, payment)
}

type mockContractRepo struct {
	repository.ContractRepository
	mockFindActive             func(ctx context.Context, companyID uint) ([]models.Contract, error)
	mockFindActiveEndedBetween func(ctx context.Context, companyID uint, from, to time.Time) ([]models.Contract, error)
	mockHasSuccessor           func(ctx context.Context, companyID uint, clientName string, endedAt time.Time) (bool, error)
}

func (m *mockContractRepo) FindActive(ctx context.Context, companyID uint) ([]models.Contract, error) {
	return m.mockFindActive(ctx, companyID)
}

func (m *mockContractRepo) FindActiveEndedBetween(ctx context.Context, companyID uint, from, to time.Time) ([]models.Contract, error) {
	return m.mockFindActiveEndedBetween(ctx, companyID, from, to)
}

func (m *mockContractRepo) HasSuccessor(ctx context.Context, companyID uint, clientName string, endedAt time.Time) (bool, error) {
	return m.mockHasSuccessor(ctx, companyID, clientName, endedAt)
}

type mockLeakRepo struct {
	repository.LeakRepository
	mockFindOpenByKey func(ctx context.Context, companyID uint, leakType, sourceReference string) (*models.Leak, error)
	mockCreate        func(ctx context.Context, leak *models.Leak) error
	mockUpdate        func(ctx context.Context, leak *models.Leak) error
}

func (m *mockLeakRepo) FindOpenByKey(ctx context.Context, companyID uint, leakType, sourceReference string) (*models.Leak, error) {
	return m.mockFindOpenByKey(ctx, companyID, leakType, sourceReference)
}

func (m *mockLeakRepo) Create(ctx context.Context, leak *models.Leak) error {
	return m.mockCreate(ctx, leak)
}

func (m *mockLeakRepo) Update(ctx context.Context, leak *models.Leak) error {
	return m.mockUpdate(ctx, leak)
}

type mockLedgerAuth struct {
	mockAuthorizeURL       func(state string) string
	mockExchangeAuthCode   func(ctx context.Context, code string) (*ledger.TokenResponse, error)
	mockRefreshAccessToken func(ctx context.Context, refreshToken string) (*ledger.TokenResponse, error)
}

func (m *mockLedgerAuth) AuthorizeURL(state string) string {
	if m.mockAuthorizeURL != nil {
		return m.mockAuthorizeURL(state)
	}
	return "https://ledger.example.com/authorize?state=" + state
}

func (m *mockLedgerAuth) ExchangeAuthCode(ctx context.Context, code string) (*ledger.TokenResponse, error) {
	return m.mockExchangeAuthCode(ctx, code)
}

func (m *mockLedgerAuth) RefreshAccessToken(ctx context.Context, refreshToken string) (*ledger.TokenResponse, error) {
	return m.mockRefreshAccessToken(ctx, refreshToken)
}

type mockLedgerQuery struct {
	mockQueryInvoices func(ctx context.Context, realmID, accessToken string, maxResults int) ([]ledger.WireInvoice, error)
	mockQueryPayments func(ctx context.Context, realmID, accessToken string, maxResults int) ([]ledger.WirePayment, error)
}

func (m *mockLedgerQuery) QueryInvoices(ctx context.Context, realmID, accessToken string, maxResults int) ([]ledger.WireInvoice, error) {
	return m.mockQueryInvoices(ctx, realmID, accessToken, maxResults)
}

func (m *mockLedgerQuery) QueryPayments(ctx context.Context, realmID, accessToken string, maxResults int) ([]ledger.WirePayment, error) {
	return m.mockQueryPayments(ctx, realmID, accessToken, maxResults)
}

type mockNotifier struct {
	notified []string
}

func (m *mockNotifier) NotifyAdmins(ctx context.Context, title, message, notifType string) error {
	m.notified = append(m.notified, notifType)
	return nil
}

// connectedCompany returns a company with a valid in-memory token pair.
// Tests run with an empty cipher key so tokens pass through unchanged.
func connectedCompany(id uint) *models.Company {
	realm := "realm-1"
	access := "access-token"
	refresh := "refresh-token"
	expires := time.Now().Add(1 * time.Hour)
	return &models.Company{
		ID:              id,
		Name:            "Acme Corp",
		Status:          models.CompanyStatusActive,
		LedgerConnected: true,
		LedgerRealmID:   &realm,
		AccessToken:     &access,
		RefreshToken:    &refresh,
		TokenExpiresAt:  &expires,
	}
}

func passthroughCipher() *TokenCipher {
	cipher, _ := NewTokenCipher("")
	return cipher
}
