package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveInvoiceState(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	futureDue := now.AddDate(0, 0, 30)
	pastDue := now.AddDate(0, 0, -10)

	tests := []struct {
		name        string
		amount      float64
		totalPaid   float64
		dueDate     time.Time
		current     string
		wantStatus  string
		wantBalance float64
	}{
		{"fully paid", 1000, 1000, futureDue, InvoiceStatusSent, InvoiceStatusPaid, 0},
		{"overpaid", 1000, 1200, futureDue, InvoiceStatusSent, InvoiceStatusPaid, -200},
		{"partially paid", 1000, 400, futureDue, InvoiceStatusSent, InvoiceStatusPartial, 600},
		{"unpaid past due", 1000, 0, pastDue, InvoiceStatusSent, InvoiceStatusOverdue, 1000},
		{"partial wins over overdue", 1000, 400, pastDue, InvoiceStatusSent, InvoiceStatusPartial, 600},
		{"unpaid not yet due keeps status", 1000, 0, futureDue, InvoiceStatusViewed, InvoiceStatusViewed, 1000},
		{"empty status defaults to sent", 1000, 0, futureDue, "", InvoiceStatusSent, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, balance := DeriveInvoiceState(tt.amount, tt.totalPaid, tt.dueDate, now, tt.current)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantBalance, balance)
		})
	}
}

func TestInvoiceDaysOverdue(t *testing.T) {
	now := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)

	overdue := &Invoice{DueDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 10, overdue.DaysOverdue(now))

	notDue := &Invoice{DueDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 0, notDue.DaysOverdue(now))
}

func TestInvoiceIsCollectible(t *testing.T) {
	collectible := []string{InvoiceStatusSent, InvoiceStatusViewed, InvoiceStatusPartial, InvoiceStatusOverdue}
	for _, status := range collectible {
		assert.True(t, (&Invoice{Status: status}).IsCollectible(), status)
	}

	for _, status := range []string{InvoiceStatusDraft, InvoiceStatusPaid, InvoiceStatusCancelled} {
		assert.False(t, (&Invoice{Status: status}).IsCollectible(), status)
	}
}
