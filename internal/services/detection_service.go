package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/leakwatch/leakwatch-api/internal/repository"
	"github.com/leakwatch/leakwatch-api/pkg/logger"
)

// underBillingTolerance is the billed-vs-expected gap ratio below which a
// contract is considered billed in full.
const underBillingTolerance = 0.05

// renewalLookbackDays bounds how far back the failed-renewal detector
// scans for recently ended contracts.
const renewalLookbackDays = 30

// uncollectedThresholdDays is how far past due an invoice must be before
// it counts as an uncollected receivable.
const uncollectedThresholdDays = 60

// AdminNotifier delivers alerts to administrator users.
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, title, message, notifType string) error
}

// DetectorResult is the outcome of a single detector run. Count is only
// meaningful when Success is true.
type DetectorResult struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

// DetectionResult bundles the per-detector results of a full scan.
type DetectionResult struct {
	MissingPayments        DetectorResult `json:"missing_payments"`
	UnderBilling           DetectorResult `json:"under_billing"`
	FailedRenewals         DetectorResult `json:"failed_renewals"`
	UncollectedReceivables DetectorResult `json:"uncollected_receivables"`
	Total                  int            `json:"total"`
}

// DetectionService scans a company's synced data for revenue leaks. The
// four detectors are independent: one failing does not block the others.
// Detection runs are serialized per company so concurrent scans cannot
// race past the dedup guard and create duplicate leaks.
type DetectionService struct {
	invoiceRepo  repository.InvoiceRepository
	contractRepo repository.ContractRepository
	leakRepo     repository.LeakRepository
	notifier     AdminNotifier
	locks        sync.Map
}

// NewDetectionService creates a new detection service
func NewDetectionService(
	invoiceRepo repository.InvoiceRepository,
	contractRepo repository.ContractRepository,
	leakRepo repository.LeakRepository,
	notifier AdminNotifier,
) *DetectionService {
	return &DetectionService{
		invoiceRepo:  invoiceRepo,
		contractRepo: contractRepo,
		leakRepo:     leakRepo,
		notifier:     notifier,
	}
}

// DetectLeaks runs all four detectors for the company and returns the
// per-detector results plus a total across the ones that succeeded.
func (s *DetectionService) DetectLeaks(ctx context.Context, companyID uint) DetectionResult {
	lock := s.lockFor(companyID)
	lock.Lock()
	defer lock.Unlock()

	result := DetectionResult{
		MissingPayments:        s.runDetector(ctx, companyID, "missing_payments", s.detectMissingPayments),
		UnderBilling:           s.runDetector(ctx, companyID, "under_billing", s.detectUnderBilling),
		FailedRenewals:         s.runDetector(ctx, companyID, "failed_renewals", s.detectFailedRenewals),
		UncollectedReceivables: s.runDetector(ctx, companyID, "uncollected_receivables", s.detectUncollectedReceivables),
	}
	for _, r := range []DetectorResult{
		result.MissingPayments,
		result.UnderBilling,
		result.FailedRenewals,
		result.UncollectedReceivables,
	} {
		if r.Success {
			result.Total += r.Count
		}
	}

	logger.Info("Leak detection completed", "company_id", companyID, "total", result.Total)
	return result
}

func (s *DetectionService) lockFor(companyID uint) *sync.Mutex {
	actual, _ := s.locks.LoadOrStore(companyID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

func (s *DetectionService) runDetector(
	ctx context.Context,
	companyID uint,
	name string,
	detect func(ctx context.Context, companyID uint) (int, error),
) DetectorResult {
	count, err := detect(ctx, companyID)
	if err != nil {
		logger.Error("Detector failed", "detector", name, "company_id", companyID, "error", err)
		return DetectorResult{Success: false, Count: 0, Error: err.Error()}
	}
	return DetectorResult{Success: true, Count: count}
}

// detectMissingPayments flags collectible invoices that are past due.
func (s *DetectionService) detectMissingPayments(ctx context.Context, companyID uint) (int, error) {
	invoices, err := s.invoiceRepo.FindCollectible(ctx, companyID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	count := 0
	for i := range invoices {
		invoice := &invoices[i]
		daysOverdue := invoice.DaysOverdue(now)
		if daysOverdue <= 0 {
			continue
		}

		action := "Send payment reminder to customer"
		if daysOverdue > 60 {
			action = "Escalate to collections"
		}

		if err := s.recordLeak(ctx, &models.Leak{
			CompanyID:         companyID,
			LeakType:          models.LeakTypeMissingPayment,
			Priority:          PriorityFor(invoice.Balance, daysOverdue),
			Amount:            invoice.Balance,
			Confidence:        ConfidenceFor(daysOverdue),
			SourceReference:   invoice.InvoiceNumber,
			RootCause:         "Invoice past due with outstanding balance",
			Description:       fmt.Sprintf("Invoice %s for %s is %d days overdue with $%.2f outstanding", invoice.InvoiceNumber, invoice.CustomerName, daysOverdue, invoice.Balance),
			RecommendedAction: action,
			AgingDays:         daysOverdue,
		}); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

// detectUnderBilling compares each active contract's expected billing
// against the invoices actually issued during its span.
func (s *DetectionService) detectUnderBilling(ctx context.Context, companyID uint) (int, error) {
	contracts, err := s.contractRepo.FindActive(ctx, companyID)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range contracts {
		contract := &contracts[i]
		expected := contract.ExpectedBilling()
		if expected <= 0 {
			continue
		}

		invoices, err := s.invoiceRepo.FindIssuedBetween(ctx, companyID, contract.StartDate, contract.EndDate)
		if err != nil {
			return 0, err
		}
		// Every invoice issued inside the contract window counts toward
		// the billed total, regardless of which customer it names.
		billed := 0.0
		for _, invoice := range invoices {
			billed += invoice.Amount
		}

		gap := expected - billed
		if gap/expected <= underBillingTolerance {
			continue
		}

		priority := models.LeakPriorityMedium
		if gap > 10000 {
			priority = models.LeakPriorityHigh
		}

		if err := s.recordLeak(ctx, &models.Leak{
			CompanyID:         companyID,
			LeakType:          models.LeakTypeUnderBilling,
			Priority:          priority,
			Amount:            gap,
			Confidence:        85,
			SourceReference:   contract.ContractNumber,
			RootCause:         "Billed amount falls short of the contracted fee schedule",
			Description:       fmt.Sprintf("Contract %s (%s) expected $%.2f but only $%.2f was invoiced", contract.ContractNumber, contract.ClientName, expected, billed),
			RecommendedAction: "Review contract billing schedule and issue catch-up invoices",
		}); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

// detectFailedRenewals flags contracts that ended recently with no
// successor contract for the same client.
func (s *DetectionService) detectFailedRenewals(ctx context.Context, companyID uint) (int, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -renewalLookbackDays)
	contracts, err := s.contractRepo.FindActiveEndedBetween(ctx, companyID, from, now)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range contracts {
		contract := &contracts[i]
		renewed, err := s.contractRepo.HasSuccessor(ctx, companyID, contract.ClientName, contract.EndDate)
		if err != nil {
			return 0, err
		}
		if renewed {
			continue
		}

		if err := s.recordLeak(ctx, &models.Leak{
			CompanyID:         companyID,
			LeakType:          models.LeakTypeFailedRenewal,
			Priority:          models.LeakPriorityHigh,
			Amount:            contract.BaseFee,
			Confidence:        70,
			SourceReference:   contract.ContractNumber,
			RootCause:         "Contract ended without a successor contract",
			Description:       fmt.Sprintf("Contract %s (%s) ended %s with no renewal on record", contract.ContractNumber, contract.ClientName, contract.EndDate.Format("2006-01-02")),
			RecommendedAction: "Contact client to negotiate a renewal",
		}); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

// detectUncollectedReceivables flags collectible invoices at least 60
// days past due. Overlaps with missing_payment on purpose: the types are
// independent and non-exclusive.
func (s *DetectionService) detectUncollectedReceivables(ctx context.Context, companyID uint) (int, error) {
	invoices, err := s.invoiceRepo.FindCollectible(ctx, companyID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	count := 0
	for i := range invoices {
		invoice := &invoices[i]
		daysOverdue := invoice.DaysOverdue(now)
		if daysOverdue < uncollectedThresholdDays {
			continue
		}

		if err := s.recordLeak(ctx, &models.Leak{
			CompanyID:         companyID,
			LeakType:          models.LeakTypeUncollectedReceivable,
			Priority:          models.LeakPriorityCritical,
			Amount:            invoice.Balance,
			Confidence:        90,
			SourceReference:   invoice.InvoiceNumber,
			RootCause:         "Receivable aged beyond the collection window",
			Description:       fmt.Sprintf("Invoice %s for %s has $%.2f uncollected for %d days", invoice.InvoiceNumber, invoice.CustomerName, invoice.Balance, daysOverdue),
			RecommendedAction: "Escalate to collections or evaluate write-off",
			AgingDays:         daysOverdue,
		}); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

// recordLeak is the shared find-or-refresh-or-create primitive behind
// every detector. When an open leak already exists for the dedup key
// (company, leak type, source reference), its amount, aging and scores
// are refreshed in place; otherwise a new leak is created and, when
// critical, admins are notified.
func (s *DetectionService) recordLeak(ctx context.Context, candidate *models.Leak) error {
	existing, err := s.leakRepo.FindOpenByKey(ctx, candidate.CompanyID, candidate.LeakType, candidate.SourceReference)
	if err != nil {
		return err
	}

	if existing != nil {
		existing.Amount = candidate.Amount
		existing.AgingDays = candidate.AgingDays
		existing.Priority = candidate.Priority
		existing.Confidence = candidate.Confidence
		existing.Description = candidate.Description
		existing.RecommendedAction = candidate.RecommendedAction
		return s.leakRepo.Update(ctx, existing)
	}

	candidate.Status = models.LeakStatusDetected
	candidate.DetectedAt = time.Now()
	if err := s.leakRepo.Create(ctx, candidate); err != nil {
		return err
	}

	if candidate.Priority == models.LeakPriorityCritical && s.notifier != nil {
		title := "Critical revenue leak detected"
		message := fmt.Sprintf("%s leak of $%.2f detected (ref %s)", candidate.LeakType, candidate.Amount, candidate.SourceReference)
		if err := s.notifier.NotifyAdmins(ctx, title, message, models.NotificationTypeLeakCritical); err != nil {
			logger.Error("Failed to notify admins about critical leak", "leak_id", candidate.ID, "error", err)
		}
	}

	return nil
}
