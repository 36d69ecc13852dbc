package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/leakwatch/leakwatch-api/internal/ledger"
	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/leakwatch/leakwatch-api/internal/repository"
	"github.com/leakwatch/leakwatch-api/pkg/logger"
)

// LedgerQueryAPI is the read surface of the ledger client.
type LedgerQueryAPI interface {
	QueryInvoices(ctx context.Context, realmID, accessToken string, maxResults int) ([]ledger.WireInvoice, error)
	QueryPayments(ctx context.Context, realmID, accessToken string, maxResults int) ([]ledger.WirePayment, error)
}

// SyncResult is the outcome of one sync call, suitable for surfacing
// through the API or scheduler. Callers must check Success before
// trusting Count.
type SyncResult struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

// FullSyncResult bundles the per-entity results of a full sync.
type FullSyncResult struct {
	Invoices SyncResult `json:"invoices"`
	Payments SyncResult `json:"payments"`
}

// Succeeded returns true when every entity synced cleanly.
func (r FullSyncResult) Succeeded() bool {
	return r.Invoices.Success && r.Payments.Success
}

// SyncService pulls invoices and payments out of the external ledger and
// upserts them as canonical entities. Each sync call is all-or-nothing:
// the first mapping or persistence error aborts the batch and the
// company's last-sync marker is not advanced.
type SyncService struct {
	companyRepo repository.CompanyRepository
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
	tokenSvc    *TokenService
	ledgerAPI   LedgerQueryAPI
	maxResults  int
}

// NewSyncService creates a new sync service
func NewSyncService(
	companyRepo repository.CompanyRepository,
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	tokenSvc *TokenService,
	ledgerAPI LedgerQueryAPI,
	maxResults int,
) *SyncService {
	if maxResults <= 0 {
		maxResults = ledger.DefaultMaxResults
	}
	return &SyncService{
		companyRepo: companyRepo,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		tokenSvc:    tokenSvc,
		ledgerAPI:   ledgerAPI,
		maxResults:  maxResults,
	}
}

// SyncInvoices pulls the company's invoices from the ledger and upserts
// them keyed by (company, external id).
func (s *SyncService) SyncInvoices(ctx context.Context, company *models.Company) SyncResult {
	count, err := s.syncInvoices(ctx, company)
	if err != nil {
		logger.Error("Invoice sync failed", "company_id", company.ID, "error", err)
		return SyncResult{Success: false, Count: 0, Error: err.Error()}
	}
	return SyncResult{Success: true, Count: count}
}

// SyncPayments pulls the company's payments from the ledger, upserts them
// and links each to its invoice when the ledger reports one.
func (s *SyncService) SyncPayments(ctx context.Context, company *models.Company) SyncResult {
	count, err := s.syncPayments(ctx, company)
	if err != nil {
		logger.Error("Payment sync failed", "company_id", company.ID, "error", err)
		return SyncResult{Success: false, Count: 0, Error: err.Error()}
	}
	return SyncResult{Success: true, Count: count}
}

// FullSync runs the invoice and payment syncs in order. Invoices go first
// so freshly linked payments can resolve against them.
func (s *SyncService) FullSync(ctx context.Context, company *models.Company) FullSyncResult {
	return FullSyncResult{
		Invoices: s.SyncInvoices(ctx, company),
		Payments: s.SyncPayments(ctx, company),
	}
}

func (s *SyncService) syncInvoices(ctx context.Context, company *models.Company) (int, error) {
	if !company.CanSync() {
		return 0, ErrNotConnected
	}

	token, err := s.tokenSvc.GetValidAccessToken(ctx, company)
	if err != nil {
		return 0, err
	}

	wires, err := s.ledgerAPI.QueryInvoices(ctx, *company.LedgerRealmID, token, s.maxResults)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	for _, wire := range wires {
		invoice, err := mapInvoice(company.ID, wire, now)
		if err != nil {
			return 0, fmt.Errorf("map invoice %s: %w", wire.ID, err)
		}
		if err := s.invoiceRepo.UpsertByExternalID(ctx, invoice); err != nil {
			return 0, fmt.Errorf("upsert invoice %s: %w", wire.ID, err)
		}
	}

	if err := s.companyRepo.UpdateLastSyncAt(ctx, company.ID, now); err != nil {
		return 0, err
	}

	logger.Info("Invoice sync completed", "company_id", company.ID, "count", len(wires))
	return len(wires), nil
}

func (s *SyncService) syncPayments(ctx context.Context, company *models.Company) (int, error) {
	if !company.CanSync() {
		return 0, ErrNotConnected
	}

	token, err := s.tokenSvc.GetValidAccessToken(ctx, company)
	if err != nil {
		return 0, err
	}

	wires, err := s.ledgerAPI.QueryPayments(ctx, *company.LedgerRealmID, token, s.maxResults)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	for _, wire := range wires {
		payment, err := mapPayment(company.ID, wire)
		if err != nil {
			return 0, fmt.Errorf("map payment %s: %w", wire.ID, err)
		}

		// Resolve the invoice link when the ledger reports one. A missing
		// match leaves the payment unlinked, which is valid; any other
		// lookup failure aborts the batch.
		if txnID := linkedInvoiceTxnID(wire); txnID != "" {
			invoice, err := s.invoiceRepo.FindByExternalID(ctx, company.ID, txnID)
			switch {
			case err == nil:
				payment.InvoiceID = &invoice.ID
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return 0, fmt.Errorf("resolve invoice link for payment %s: %w", wire.ID, err)
			}
		}

		if err := s.paymentRepo.UpsertByExternalID(ctx, payment); err != nil {
			return 0, fmt.Errorf("upsert payment %s: %w", wire.ID, err)
		}
	}

	if err := s.companyRepo.UpdateLastSyncAt(ctx, company.ID, now); err != nil {
		return 0, err
	}

	logger.Info("Payment sync completed", "company_id", company.ID, "count", len(wires))
	return len(wires), nil
}

// mapInvoice converts a ledger wire invoice into the canonical entity.
// Balance and status are recomputed through DeriveInvoiceState so the
// balance invariant holds on every write.
func mapInvoice(companyID uint, wire ledger.WireInvoice, now time.Time) (*models.Invoice, error) {
	issueDate, err := parseLedgerDate(wire.TxnDate)
	if err != nil {
		return nil, fmt.Errorf("invalid TxnDate %q: %w", wire.TxnDate, err)
	}
	dueDate := issueDate
	if wire.DueDate != "" {
		dueDate, err = parseLedgerDate(wire.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid DueDate %q: %w", wire.DueDate, err)
		}
	}

	currency := wire.CurrencyRef.Value
	if currency == "" {
		currency = "USD"
	}

	number := wire.DocNumber
	if number == "" {
		number = "INV-" + wire.ID
	}

	totalPaid := wire.TotalAmt - wire.Balance

	// The ledger only distinguishes paid/partial/open; overdue falls out
	// of the due date during state derivation.
	initial := models.InvoiceStatusSent
	status, balance := models.DeriveInvoiceState(wire.TotalAmt, totalPaid, dueDate, now, initial)

	externalID := wire.ID
	invoice := &models.Invoice{
		CompanyID:     companyID,
		ExternalID:    &externalID,
		InvoiceNumber: number,
		CustomerID:    wire.CustomerRef.Value,
		CustomerName:  wire.CustomerRef.Name,
		Amount:        wire.TotalAmt,
		Currency:      currency,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		TotalPaid:     totalPaid,
		Balance:       balance,
		Status:        status,
		Source:        models.SourceQuickBooks,
	}

	if len(wire.Line) > 0 {
		items := make([]map[string]interface{}, 0, len(wire.Line))
		for _, line := range wire.Line {
			items = append(items, map[string]interface{}{
				"description": line.Description,
				"quantity":    line.SalesItemLineDetail.Qty,
				"unit_price":  line.SalesItemLineDetail.UnitPrice,
				"amount":      line.Amount,
			})
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("encode line items: %w", err)
		}
		encoded := string(raw)
		invoice.LineItems = &encoded
	}

	return invoice, nil
}

// mapPayment converts a ledger wire payment into the canonical entity.
func mapPayment(companyID uint, wire ledger.WirePayment) (*models.Payment, error) {
	paymentDate, err := parseLedgerDate(wire.TxnDate)
	if err != nil {
		return nil, fmt.Errorf("invalid TxnDate %q: %w", wire.TxnDate, err)
	}

	currency := wire.CurrencyRef.Value
	if currency == "" {
		currency = "USD"
	}

	externalID := wire.ID
	payment := &models.Payment{
		CompanyID:     companyID,
		ExternalID:    &externalID,
		PaymentNumber: "EXT-" + wire.ID,
		CustomerID:    wire.CustomerRef.Value,
		CustomerName:  wire.CustomerRef.Name,
		Amount:        wire.TotalAmt,
		Currency:      currency,
		PaymentDate:   paymentDate,
		Method:        mapPaymentMethod(wire.PaymentMethodRef.Name),
		Status:        models.PaymentStatusCompleted,
		Source:        models.SourceQuickBooks,
	}

	if wire.PaymentRefNum != "" {
		ref := wire.PaymentRefNum
		payment.Reference = &ref
	}

	return payment, nil
}

// mapPaymentMethod maps the ledger's free-form method name onto the
// canonical set by substring match.
func mapPaymentMethod(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "ach") || strings.Contains(lower, "bank"):
		return models.PaymentMethodACH
	case strings.Contains(lower, "wire"):
		return models.PaymentMethodWire
	case strings.Contains(lower, "check"):
		return models.PaymentMethodCheck
	default:
		return models.PaymentMethodOther
	}
}

// linkedInvoiceTxnID returns the external id of the invoice the payment
// settles, or empty when the ledger reports no link.
func linkedInvoiceTxnID(wire ledger.WirePayment) string {
	if len(wire.Line) == 0 || len(wire.Line[0].LinkedTxn) == 0 {
		return ""
	}
	return wire.Line[0].LinkedTxn[0].TxnID
}

func parseLedgerDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
