package services

import (
	"context"
	"fmt"
	"time"

	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/leakwatch/leakwatch-api/internal/repository"
	"github.com/leakwatch/leakwatch-api/pkg/logger"
)

// SchedulerService runs the recurring sync-then-detect cycle over every
// connected company. One company failing does not stop the cycle.
type SchedulerService struct {
	companyRepo  repository.CompanyRepository
	userRepo     repository.UserRepository
	leakRepo     repository.LeakRepository
	syncSvc      *SyncService
	detectionSvc *DetectionService
	notifier     AdminNotifier
	emailSvc     *EmailService
}

func NewSchedulerService(
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
	leakRepo repository.LeakRepository,
	syncSvc *SyncService,
	detectionSvc *DetectionService,
	notifier AdminNotifier,
	emailSvc *EmailService,
) *SchedulerService {
	return &SchedulerService{
		companyRepo:  companyRepo,
		userRepo:     userRepo,
		leakRepo:     leakRepo,
		syncSvc:      syncSvc,
		detectionSvc: detectionSvc,
		notifier:     notifier,
		emailSvc:     emailSvc,
	}
}

// RunSyncCycle syncs every connected company and runs detection on the
// ones that synced cleanly.
func (s *SchedulerService) RunSyncCycle(ctx context.Context) error {
	companies, err := s.companyRepo.FindConnected(ctx)
	if err != nil {
		return err
	}

	for i := range companies {
		company := &companies[i]

		result := s.syncSvc.FullSync(ctx, company)
		if !result.Succeeded() {
			s.reportSyncFailure(ctx, company, result)
			continue
		}

		cycleStart := time.Now()
		detection := s.detectionSvc.DetectLeaks(ctx, company.ID)
		if detection.Total > 0 {
			s.emailCriticalLeaks(ctx, company, cycleStart)
		}

		logger.Info("Scheduled cycle completed",
			"company_id", company.ID,
			"invoices", result.Invoices.Count,
			"payments", result.Payments.Count,
			"leaks", detection.Total)
	}

	return nil
}

// emailCriticalLeaks mails every admin about the critical leaks created
// during this cycle. Refreshed leaks keep their original DetectedAt, so
// the cutoff filters them out and admins are only mailed once per leak.
func (s *SchedulerService) emailCriticalLeaks(ctx context.Context, company *models.Company, since time.Time) {
	query := repository.NewListQuery()
	query.PerPage = 100
	query.Filters["priority"] = models.LeakPriorityCritical
	query.Filters["status"] = models.LeakStatusDetected

	leaks, _, err := s.leakRepo.FindByCompany(ctx, company.ID, query)
	if err != nil {
		logger.Error("Failed to load critical leaks for alerting", "company_id", company.ID, "error", err)
		return
	}

	var fresh []models.Leak
	for _, leak := range leaks {
		if !leak.DetectedAt.Before(since) {
			fresh = append(fresh, leak)
		}
	}
	if len(fresh) == 0 {
		return
	}

	admins, err := s.userRepo.FindAdmins(ctx)
	if err != nil {
		logger.Error("Failed to load admins for critical leak email", "error", err)
		return
	}

	for i := range fresh {
		for j := range admins {
			if err := s.emailSvc.SendCriticalLeakAlert(ctx, &admins[j], company, &fresh[i]); err != nil {
				logger.Error("Failed to email critical leak alert", "to", admins[j].Email, "error", err)
			}
		}
	}
}

func (s *SchedulerService) reportSyncFailure(ctx context.Context, company *models.Company, result FullSyncResult) {
	reason := result.Invoices.Error
	if reason == "" {
		reason = result.Payments.Error
	}

	logger.Error("Scheduled sync failed", "company_id", company.ID, "error", reason)

	title := "Ledger sync failed"
	message := fmt.Sprintf("Scheduled sync for %s failed: %s", company.Name, reason)
	if err := s.notifier.NotifyAdmins(ctx, title, message, models.NotificationTypeSyncFailed); err != nil {
		logger.Error("Failed to notify admins about sync failure", "company_id", company.ID, "error", err)
	}

	admins, err := s.userRepo.FindAdmins(ctx)
	if err != nil {
		logger.Error("Failed to load admins for sync failure email", "error", err)
		return
	}
	for i := range admins {
		if err := s.emailSvc.SendSyncFailed(ctx, &admins[i], company, reason); err != nil {
			logger.Error("Failed to email sync failure", "to", admins[i].Email, "error", err)
		}
	}
}
