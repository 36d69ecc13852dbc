package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/leakwatch/leakwatch-api/internal/config"
	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/leakwatch/leakwatch-api/pkg/logger"
	"github.com/resend/resend-go/v2"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

// SendCriticalLeakAlert emails an admin about a freshly detected
// critical leak.
func (s *EmailService) SendCriticalLeakAlert(ctx context.Context, user *models.User, company *models.Company, leak *models.Leak) error {
	data := struct {
		Name            string
		CompanyName     string
		LeakType        string
		Amount          string
		SourceReference string
		Description     string
	}{
		Name:            user.FullName,
		CompanyName:     company.Name,
		LeakType:        leak.LeakType,
		Amount:          fmt.Sprintf("$%.2f", leak.Amount),
		SourceReference: leak.SourceReference,
		Description:     leak.Description,
	}

	body, err := s.renderTemplate("critical_leak.html", data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{user.Email},
		Subject: fmt.Sprintf("Critical leak detected: %s", company.Name),
		Html:    body,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error("Failed to send email", "to", user.Email, "error", err)
		return err
	}

	logger.Info("Email sent", "to", user.Email, "subject", "critical leak alert")
	return nil
}

// SendSyncFailed emails an admin when a scheduled ledger sync fails.
func (s *EmailService) SendSyncFailed(ctx context.Context, user *models.User, company *models.Company, reason string) error {
	data := struct {
		Name        string
		CompanyName string
		Reason      string
	}{
		Name:        user.FullName,
		CompanyName: company.Name,
		Reason:      reason,
	}

	body, err := s.renderTemplate("sync_failed.html", data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{user.Email},
		Subject: fmt.Sprintf("Ledger sync failed: %s", company.Name),
		Html:    body,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error("Failed to send email", "to", user.Email, "error", err)
		return err
	}

	logger.Info("Email sent", "to", user.Email, "subject", "sync failure alert")
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
