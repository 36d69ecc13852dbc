package handlers

import (
	"github.com/leakwatch/leakwatch-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	Company      *CompanyHandler
	Sync         *SyncHandler
	Leak         *LeakHandler
	Notification *NotificationHandler
	Job          *JobHandler
	Audit        *AuditHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth, svcs.Audit),
		Company:      NewCompanyHandler(svcs.Company),
		Sync:         NewSyncHandler(svcs.Company, svcs.Sync, svcs.Detection, svcs.Audit),
		Leak:         NewLeakHandler(svcs.Leak, svcs.Export, svcs.Audit),
		Notification: NewNotificationHandler(svcs.Notification),
		Job:          NewJobHandler(svcs.Job),
		Audit:        NewAuditHandler(svcs.Audit),
	}
}
