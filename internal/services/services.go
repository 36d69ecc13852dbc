package services

import (
	"github.com/leakwatch/leakwatch-api/internal/config"
	"github.com/leakwatch/leakwatch-api/internal/jobs"
	"github.com/leakwatch/leakwatch-api/internal/ledger"
	"github.com/leakwatch/leakwatch-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	Company      *CompanyService
	Token        *TokenService
	Sync         *SyncService
	Detection    *DetectionService
	Leak         *LeakService
	Notification *NotificationService
	Audit        *AuditService
	Email        *EmailService
	Export       *ExportService
	Job          *JobService
	Scheduler    *SchedulerService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, ledgerClient *ledger.Client, cfg *config.Config, db *gorm.DB) (*Services, error) {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(db)

	cipher, err := NewTokenCipher(cfg.TokenCipherKey)
	if err != nil {
		return nil, err
	}

	tokenSvc := NewTokenService(repos.Company, ledgerClient, cipher)
	syncSvc := NewSyncService(repos.Company, repos.Invoice, repos.Payment, tokenSvc, ledgerClient, cfg.LedgerMaxResults)
	detectionSvc := NewDetectionService(repos.Invoice, repos.Contract, repos.Leak, notificationSvc)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, cfg),
		Company:      NewCompanyService(repos.Company, ledgerClient, tokenSvc),
		Token:        tokenSvc,
		Sync:         syncSvc,
		Detection:    detectionSvc,
		Leak:         NewLeakService(repos.Leak, notificationSvc),
		Notification: notificationSvc,
		Audit:        auditSvc,
		Email:        emailSvc,
		Export:       NewExportService(repos.Leak),
		Job:          NewJobService(worker),
		Scheduler:    NewSchedulerService(repos.Company, repos.User, repos.Leak, syncSvc, detectionSvc, notificationSvc, emailSvc),
	}, nil
}
