package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leakwatch/leakwatch-api/internal/ledger"
	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSyncFixture(companyRepo *mockCompanyRepo, invoiceRepo *mockInvoiceRepo, paymentRepo *mockPaymentRepo, query *mockLedgerQuery) *SyncService {
	tokenSvc := NewTokenService(companyRepo, &mockLedgerAuth{}, passthroughCipher())
	return NewSyncService(companyRepo, invoiceRepo, paymentRepo, tokenSvc, query, 1000)
}

func TestSyncInvoices_MapsWireFields(t *testing.T) {
	company := connectedCompany(1)
	companyRepo := &mockCompanyRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Company, error) {
			return connectedCompany(id), nil
		},
	}

	var upserted []*models.Invoice
	invoiceRepo := &mockInvoiceRepo{
		mockUpsertByExternalID: func(ctx context.Context, invoice *models.Invoice) error {
			upserted = append(upserted, invoice)
			return nil
		},
	}

	query := &mockLedgerQuery{
		mockQueryInvoices: func(ctx context.Context, realmID, accessToken string, maxResults int) ([]ledger.WireInvoice, error) {
			assert.Equal(t, "realm-1", realmID)
			assert.Equal(t, "access-token", accessToken)
			return []ledger.WireInvoice{{
				ID:          "101",
				DocNumber:   "INV-2024-001",
				CustomerRef: ledger.Ref{Value: "55", Name: "Acme Corp"},
				TotalAmt:    1000,
				TxnDate:     "2024-01-15",
				DueDate:     "2024-02-14",
				Balance:     400,
				Line: []ledger.WireLine{{
					Description:         "Consulting",
					Amount:              1000,
					SalesItemLineDetail: ledger.WireLineDetail{Qty: 10, UnitPrice: 100},
				}},
			}}, nil
		},
	}

	var syncedAt time.Time
	companyRepo.mockUpdateLastSyncAt = func(ctx context.Context, companyID uint, at time.Time) error {
		syncedAt = at
		return nil
	}

	svc := newSyncFixture(companyRepo, invoiceRepo, &mockPaymentRepo{}, query)
	result := svc.SyncInvoices(context.Background(), company)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, 1, result.Count)
	assert.False(t, syncedAt.IsZero(), "last sync marker must advance on success")

	require.Len(t, upserted, 1)
	invoice := upserted[0]
	require.NotNil(t, invoice.ExternalID)
	assert.Equal(t, "101", *invoice.ExternalID)
	assert.Equal(t, "INV-2024-001", invoice.InvoiceNumber)
	assert.Equal(t, "55", invoice.CustomerID)
	assert.Equal(t, "Acme Corp", invoice.CustomerName)
	assert.Equal(t, 1000.0, invoice.Amount)
	assert.Equal(t, "USD", invoice.Currency)
	assert.Equal(t, 600.0, invoice.TotalPaid)
	assert.Equal(t, 400.0, invoice.Balance)
	assert.Equal(t, models.SourceQuickBooks, invoice.Source)
	// Partially paid wins over past due in status derivation.
	assert.Equal(t, models.InvoiceStatusPartial, invoice.Status)
	require.NotNil(t, invoice.LineItems)
	assert.Contains(t, *invoice.LineItems, "Consulting")
}

func TestSyncInvoices_LedgerErrorDoesNotAdvanceSyncMarker(t *testing.T) {
	company := connectedCompany(1)
	companyRepo := &mockCompanyRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Company, error) {
			return connectedCompany(id), nil
		},
		mockUpdateLastSyncAt: func(ctx context.Context, companyID uint, at time.Time) error {
			t.Fatal("last sync marker must not advance on failure")
			return nil
		},
	}

	query := &mockLedgerQuery{
		mockQueryInvoices: func(ctx context.Context, realmID, accessToken string, maxResults int) ([]ledger.WireInvoice, error) {
			return nil, &ledger.LedgerError{Op: "query Invoice", StatusCode: 503}
		},
	}

	svc := newSyncFixture(companyRepo, &mockInvoiceRepo{}, &mockPaymentRepo{}, query)
	result := svc.SyncInvoices(context.Background(), company)

	assert.False(t, result.Success)
	assert.Zero(t, result.Count)
	assert.NotEmpty(t, result.Error)
}

func TestSyncInvoices_NotConnected(t *testing.T) {
	company := &models.Company{ID: 1, Name: "Acme"}

	svc := newSyncFixture(&mockCompanyRepo{}, &mockInvoiceRepo{}, &mockPaymentRepo{}, &mockLedgerQuery{})
	result := svc.SyncInvoices(context.Background(), company)

	assert.False(t, result.Success)
	assert.Equal(t, ErrNotConnected.Error(), result.Error)
}

func TestSyncPayments_LinksPaymentToInvoice(t *testing.T) {
	company := connectedCompany(1)
	companyRepo := &mockCompanyRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Company, error) {
			return connectedCompany(id), nil
		},
	}

	invoiceRepo := &mockInvoiceRepo{
		mockFindByExternalID: func(ctx context.Context, companyID uint, externalID string) (*models.Invoice, error) {
			require.Equal(t, "101", externalID)
			return &models.Invoice{ID: 42}, nil
		},
	}

	var upserted []*models.Payment
	paymentRepo := &mockPaymentRepo{
		mockUpsertByExternalID: func(ctx context.Context, payment *models.Payment) error {
			upserted = append(upserted, payment)
			return nil
		},
	}

	query := &mockLedgerQuery{
		mockQueryPayments: func(ctx context.Context, realmID, accessToken string, maxResults int) ([]ledger.WirePayment, error) {
			return []ledger.WirePayment{{
				ID:               "900",
				CustomerRef:      ledger.Ref{Value: "55", Name: "Acme Corp"},
				TotalAmt:         600,
				TxnDate:          "2024-02-01",
				PaymentMethodRef: ledger.Ref{Name: "ACH Bank Transfer"},
				PaymentRefNum:    "REF-1",
				Line: []ledger.WirePaymentLine{{
					LinkedTxn: []ledger.LinkedTxn{{TxnID: "101", TxnType: "Invoice"}},
				}},
			}}, nil
		},
	}

	svc := newSyncFixture(companyRepo, invoiceRepo, paymentRepo, query)
	result := svc.SyncPayments(context.Background(), company)

	require.True(t, result.Success, result.Error)
	require.Len(t, upserted, 1)
	payment := upserted[0]
	assert.Equal(t, "EXT-900", payment.PaymentNumber)
	require.NotNil(t, payment.InvoiceID)
	assert.Equal(t, uint(42), *payment.InvoiceID)
	assert.Equal(t, models.PaymentMethodACH, payment.Method)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	require.NotNil(t, payment.Reference)
	assert.Equal(t, "REF-1", *payment.Reference)
}

func TestSyncPayments_MissingInvoiceLeavesPaymentUnlinked(t *testing.T) {
	company := connectedCompany(1)
	companyRepo := &mockCompanyRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Company, error) {
			return connectedCompany(id), nil
		},
	}

	invoiceRepo := &mockInvoiceRepo{
		mockFindByExternalID: func(ctx context.Context, companyID uint, externalID string) (*models.Invoice, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	var upserted *models.Payment
	paymentRepo := &mockPaymentRepo{
		mockUpsertByExternalID: func(ctx context.Context, payment *models.Payment) error {
			upserted = payment
			return nil
		},
	}

	query := &mockLedgerQuery{
		mockQueryPayments: func(ctx context.Context, realmID, accessToken string, maxResults int) ([]ledger.WirePayment, error) {
			return []ledger.WirePayment{{
				ID:       "901",
				TotalAmt: 100,
				TxnDate:  "2024-02-01",
				Line: []ledger.WirePaymentLine{{
					LinkedTxn: []ledger.LinkedTxn{{TxnID: "nope", TxnType: "Invoice"}},
				}},
			}}, nil
		},
	}

	svc := newSyncFixture(companyRepo, invoiceRepo, paymentRepo, query)
	result := svc.SyncPayments(context.Background(), company)

	require.True(t, result.Success, result.Error)
	require.NotNil(t, upserted)
	assert.Nil(t, upserted.InvoiceID)
}

func TestSyncPayments_InvoiceLookupFailureAbortsBatch(t *testing.T) {
	company := connectedCompany(1)
	companyRepo := &mockCompanyRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Company, error) {
			return connectedCompany(id), nil
		},
		mockUpdateLastSyncAt: func(ctx context.Context, companyID uint, at time.Time) error {
			t.Fatal("last sync marker must not advance when the batch fails")
			return nil
		},
	}

	// Only a record-not-found miss may leave the payment unlinked. A
	// real lookup failure has to fail the sync.
	invoiceRepo := &mockInvoiceRepo{
		mockFindByExternalID: func(ctx context.Context, companyID uint, externalID string) (*models.Invoice, error) {
			return nil, errors.New("connection reset")
		},
	}

	paymentRepo := &mockPaymentRepo{
		mockUpsertByExternalID: func(ctx context.Context, payment *models.Payment) error {
			t.Fatal("no payment should be persisted after a failed invoice lookup")
			return nil
		},
	}

	query := &mockLedgerQuery{
		mockQueryPayments: func(ctx context.Context, realmID, accessToken string, maxResults int) ([]ledger.WirePayment, error) {
			return []ledger.WirePayment{{
				ID:       "902",
				TotalAmt: 100,
				TxnDate:  "2024-02-01",
				Line: []ledger.WirePaymentLine{{
					LinkedTxn: []ledger.LinkedTxn{{TxnID: "101", TxnType: "Invoice"}},
				}},
			}}, nil
		},
	}

	svc := newSyncFixture(companyRepo, invoiceRepo, paymentRepo, query)
	result := svc.SyncPayments(context.Background(), company)

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "connection reset")
}

func TestMapInvoice_InvalidDateAbortsBatch(t *testing.T) {
	_, err := mapInvoice(1, ledger.WireInvoice{ID: "1", TxnDate: "not-a-date"}, time.Now())
	assert.Error(t, err)
}

func TestMapPaymentMethod(t *testing.T) {
	assert.Equal(t, models.PaymentMethodACH, mapPaymentMethod("ACH Transfer"))
	assert.Equal(t, models.PaymentMethodACH, mapPaymentMethod("Bank Deposit"))
	assert.Equal(t, models.PaymentMethodWire, mapPaymentMethod("Wire"))
	assert.Equal(t, models.PaymentMethodCheck, mapPaymentMethod("Paper Check"))
	assert.Equal(t, models.PaymentMethodOther, mapPaymentMethod("Credit Card"))
}
