package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noOpenLeaks(ctx context.Context, companyID uint, leakType, sourceReference string) (*models.Leak, error) {
	return nil, nil
}

func emptyDetectionMocks() (*mockInvoiceRepo, *mockContractRepo, *mockLeakRepo) {
	invoiceRepo := &mockInvoiceRepo{
		mockFindCollectible: func(ctx context.Context, companyID uint) ([]models.Invoice, error) {
			return nil, nil
		},
		mockFindIssuedBetween: func(ctx context.Context, companyID uint, from, to time.Time) ([]models.Invoice, error) {
			return nil, nil
		},
	}
	contractRepo := &mockContractRepo{
		mockFindActive: func(ctx context.Context, companyID uint) ([]models.Contract, error) {
			return nil, nil
		},
		mockFindActiveEndedBetween: func(ctx context.Context, companyID uint, from, to time.Time) ([]models.Contract, error) {
			return nil, nil
		},
		mockHasSuccessor: func(ctx context.Context, companyID uint, clientName string, endedAt time.Time) (bool, error) {
			return false, nil
		},
	}
	leakRepo := &mockLeakRepo{
		mockFindOpenByKey: noOpenLeaks,
		mockCreate: func(ctx context.Context, leak *models.Leak) error {
			return nil
		},
		mockUpdate: func(ctx context.Context, leak *models.Leak) error {
			return nil
		},
	}
	return invoiceRepo, contractRepo, leakRepo
}

func TestDetectMissingPayments_CreatesLeakForOverdueInvoice(t *testing.T) {
	invoiceRepo, contractRepo, leakRepo := emptyDetectionMocks()

	invoiceRepo.mockFindCollectible = func(ctx context.Context, companyID uint) ([]models.Invoice, error) {
		return []models.Invoice{{
			ID:            1,
			CompanyID:     companyID,
			InvoiceNumber: "INV-100",
			CustomerName:  "Acme",
			Amount:        1000,
			Balance:       1000,
			Status:        models.InvoiceStatusOverdue,
			DueDate:       time.Now().AddDate(0, 0, -10),
		}}, nil
	}

	var created []*models.Leak
	leakRepo.mockCreate = func(ctx context.Context, leak *models.Leak) error {
		created = append(created, leak)
		return nil
	}

	svc := NewDetectionService(invoiceRepo, contractRepo, leakRepo, &mockNotifier{})
	count, err := svc.detectMissingPayments(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, created, 1)
	assert.Equal(t, models.LeakTypeMissingPayment, created[0].LeakType)
	assert.Equal(t, "INV-100", created[0].SourceReference)
	assert.Equal(t, models.LeakPriorityLow, created[0].Priority)
	assert.Equal(t, 70, created[0].Confidence)
	assert.Equal(t, models.LeakStatusDetected, created[0].Status)
	assert.Equal(t, 10, created[0].AgingDays)
	assert.Equal(t, "Send payment reminder to customer", created[0].RecommendedAction)
}

func TestDetectMissingPayments_RefreshesExistingOpenLeak(t *testing.T) {
	invoiceRepo, contractRepo, leakRepo := emptyDetectionMocks()

	invoiceRepo.mockFindCollectible = func(ctx context.Context, companyID uint) ([]models.Invoice, error) {
		return []models.Invoice{{
			InvoiceNumber: "INV-100",
			Amount:        1000,
			Balance:       800,
			Status:        models.InvoiceStatusPartial,
			DueDate:       time.Now().AddDate(0, 0, -20),
		}}, nil
	}

	existing := &models.Leak{
		ID:              7,
		CompanyID:       1,
		LeakType:        models.LeakTypeMissingPayment,
		SourceReference: "INV-100",
		Status:          models.LeakStatusInvestigating,
		Amount:          1000,
		AgingDays:       10,
	}
	leakRepo.mockFindOpenByKey = func(ctx context.Context, companyID uint, leakType, sourceReference string) (*models.Leak, error) {
		return existing, nil
	}

	creates := 0
	leakRepo.mockCreate = func(ctx context.Context, leak *models.Leak) error {
		creates++
		return nil
	}
	var updated *models.Leak
	leakRepo.mockUpdate = func(ctx context.Context, leak *models.Leak) error {
		updated = leak
		return nil
	}

	svc := NewDetectionService(invoiceRepo, contractRepo, leakRepo, &mockNotifier{})
	count, err := svc.detectMissingPayments(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Zero(t, creates, "an open leak must be refreshed, not duplicated")
	require.NotNil(t, updated)
	assert.Equal(t, uint(7), updated.ID)
	assert.Equal(t, 800.0, updated.Amount)
	assert.Equal(t, 20, updated.AgingDays)
	assert.Equal(t, models.LeakStatusInvestigating, updated.Status, "workflow status is untouched by a refresh")
}

func TestDetectUnderBilling_FlagsContractBelowExpected(t *testing.T) {
	invoiceRepo, contractRepo, leakRepo := emptyDetectionMocks()

	start := time.Now().AddDate(0, 0, -30)
	end := start.AddDate(0, 0, 90)
	contractRepo.mockFindActive = func(ctx context.Context, companyID uint) ([]models.Contract, error) {
		return []models.Contract{{
			ContractNumber:   "CT-1",
			ClientName:       "Acme",
			Status:           models.ContractStatusActive,
			StartDate:        start,
			EndDate:          end,
			BaseFee:          1000,
			BillingFrequency: models.BillingFrequencyMonthly,
		}}, nil
	}
	// Billed totals are summed across the whole window, not per client.
	invoiceRepo.mockFindIssuedBetween = func(ctx context.Context, companyID uint, from, to time.Time) ([]models.Invoice, error) {
		return []models.Invoice{
			{CustomerName: "Acme", Amount: 1000},
			{CustomerName: "Globex", Amount: 1000},
		}, nil
	}

	var created *models.Leak
	leakRepo.mockCreate = func(ctx context.Context, leak *models.Leak) error {
		created = leak
		return nil
	}

	svc := NewDetectionService(invoiceRepo, contractRepo, leakRepo, &mockNotifier{})
	count, err := svc.detectUnderBilling(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NotNil(t, created)
	assert.Equal(t, models.LeakTypeUnderBilling, created.LeakType)
	assert.Equal(t, "CT-1", created.SourceReference)
	assert.Equal(t, models.LeakPriorityMedium, created.Priority)
	assert.Equal(t, 85, created.Confidence)
	assert.InDelta(t, 1000, created.Amount, 0.01)
}

func TestDetectUnderBilling_SkipsContractWithinTolerance(t *testing.T) {
	invoiceRepo, contractRepo, leakRepo := emptyDetectionMocks()

	start := time.Now().AddDate(0, 0, -30)
	contractRepo.mockFindActive = func(ctx context.Context, companyID uint) ([]models.Contract, error) {
		return []models.Contract{{
			ContractNumber:   "CT-2",
			ClientName:       "Acme",
			StartDate:        start,
			EndDate:          start.AddDate(0, 0, 90),
			BaseFee:          1000,
			BillingFrequency: models.BillingFrequencyMonthly,
		}}, nil
	}
	invoiceRepo.mockFindIssuedBetween = func(ctx context.Context, companyID uint, from, to time.Time) ([]models.Invoice, error) {
		return []models.Invoice{{CustomerName: "Acme", Amount: 2950}}, nil
	}

	leakRepo.mockCreate = func(ctx context.Context, leak *models.Leak) error {
		t.Fatal("no leak expected for a contract billed within tolerance")
		return nil
	}

	svc := NewDetectionService(invoiceRepo, contractRepo, leakRepo, &mockNotifier{})
	count, err := svc.detectUnderBilling(context.Background(), 1)

	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDetectFailedRenewals_SkipsRenewedContract(t *testing.T) {
	invoiceRepo, contractRepo, leakRepo := emptyDetectionMocks()

	ended := time.Now().AddDate(0, 0, -10)
	contractRepo.mockFindActiveEndedBetween = func(ctx context.Context, companyID uint, from, to time.Time) ([]models.Contract, error) {
		return []models.Contract{{
			ContractNumber: "CT-3",
			ClientName:     "Acme",
			EndDate:        ended,
			BaseFee:        2500,
		}}, nil
	}
	contractRepo.mockHasSuccessor = func(ctx context.Context, companyID uint, clientName string, endedAt time.Time) (bool, error) {
		return true, nil
	}

	leakRepo.mockCreate = func(ctx context.Context, leak *models.Leak) error {
		t.Fatal("no leak expected when a successor contract exists")
		return nil
	}

	svc := NewDetectionService(invoiceRepo, contractRepo, leakRepo, &mockNotifier{})
	count, err := svc.detectFailedRenewals(context.Background(), 1)

	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDetectFailedRenewals_CreatesLeakWithoutSuccessor(t *testing.T) {
	invoiceRepo, contractRepo, leakRepo := emptyDetectionMocks()

	contractRepo.mockFindActiveEndedBetween = func(ctx context.Context, companyID uint, from, to time.Time) ([]models.Contract, error) {
		return []models.Contract{{
			ContractNumber: "CT-4",
			ClientName:     "Acme",
			EndDate:        time.Now().AddDate(0, 0, -5),
			BaseFee:        2500,
		}}, nil
	}

	var created *models.Leak
	leakRepo.mockCreate = func(ctx context.Context, leak *models.Leak) error {
		created = leak
		return nil
	}

	svc := NewDetectionService(invoiceRepo, contractRepo, leakRepo, &mockNotifier{})
	count, err := svc.detectFailedRenewals(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NotNil(t, created)
	assert.Equal(t, models.LeakTypeFailedRenewal, created.LeakType)
	assert.Equal(t, models.LeakPriorityHigh, created.Priority)
	assert.Equal(t, 70, created.Confidence)
	assert.Equal(t, 2500.0, created.Amount)
}

func TestDetectLeaks_OldInvoiceTriggersBothReceivableDetectors(t *testing.T) {
	invoiceRepo, contractRepo, leakRepo := emptyDetectionMocks()

	invoiceRepo.mockFindCollectible = func(ctx context.Context, companyID uint) ([]models.Invoice, error) {
		return []models.Invoice{{
			InvoiceNumber: "INV-200",
			CustomerName:  "Acme",
			Amount:        2000,
			Balance:       2000,
			Status:        models.InvoiceStatusOverdue,
			DueDate:       time.Now().AddDate(0, 0, -65),
		}}, nil
	}

	var created []*models.Leak
	leakRepo.mockCreate = func(ctx context.Context, leak *models.Leak) error {
		created = append(created, leak)
		return nil
	}

	notifier := &mockNotifier{}
	svc := NewDetectionService(invoiceRepo, contractRepo, leakRepo, notifier)
	result := svc.DetectLeaks(context.Background(), 1)

	assert.True(t, result.MissingPayments.Success)
	assert.True(t, result.UncollectedReceivables.Success)
	assert.Equal(t, 2, result.Total)
	require.Len(t, created, 2)

	byType := map[string]*models.Leak{}
	for _, leak := range created {
		byType[leak.LeakType] = leak
	}
	require.Contains(t, byType, models.LeakTypeMissingPayment)
	require.Contains(t, byType, models.LeakTypeUncollectedReceivable)
	assert.Equal(t, models.LeakPriorityCritical, byType[models.LeakTypeUncollectedReceivable].Priority)
	assert.Equal(t, 90, byType[models.LeakTypeUncollectedReceivable].Confidence)
	assert.Equal(t, 65, byType[models.LeakTypeUncollectedReceivable].AgingDays)

	// The uncollected leak is critical so admins get an alert.
	assert.Contains(t, notifier.notified, models.NotificationTypeLeakCritical)
}

func TestDetectLeaks_OneDetectorFailingDoesNotBlockOthers(t *testing.T) {
	invoiceRepo, contractRepo, leakRepo := emptyDetectionMocks()

	contractRepo.mockFindActive = func(ctx context.Context, companyID uint) ([]models.Contract, error) {
		return nil, errors.New("db down")
	}

	svc := NewDetectionService(invoiceRepo, contractRepo, leakRepo, &mockNotifier{})
	result := svc.DetectLeaks(context.Background(), 1)

	assert.False(t, result.UnderBilling.Success)
	assert.Equal(t, "db down", result.UnderBilling.Error)
	assert.True(t, result.MissingPayments.Success)
	assert.True(t, result.FailedRenewals.Success)
	assert.True(t, result.UncollectedReceivables.Success)
	assert.Zero(t, result.Total)
}
