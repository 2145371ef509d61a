package ledger_test

import (
	"testing"
	"time"

	"github.com/gitKheang/library-management-system/internal/ledger"
	"github.com/gitKheang/library-management-system/internal/models"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	tests := []struct {
		name       string
		returnDate *time.Time
		dueDate    time.Time
		want       models.LoanStatus
	}{
		{"Open loan before due date", nil, tomorrow, models.LoanBorrowed},
		{"Open loan exactly at due date", nil, now, models.LoanBorrowed},
		{"Open loan past due date", nil, yesterday, models.LoanOverdue},
		{"Returned loan before due date", &yesterday, tomorrow, models.LoanReturned},
		{"Returned loan stays returned past due date", &yesterday, yesterday, models.LoanReturned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ledger.DeriveStatus(tt.returnDate, tt.dueDate, now); got != tt.want {
				t.Errorf("DeriveStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRefreshOverwritesCachedStatus(t *testing.T) {
	now := time.Now()
	loan := models.Loan{
		DueDate: now.AddDate(0, 0, -2),
		Status:  models.LoanBorrowed, // stale cache
	}

	refreshed := ledger.Refresh(loan, now)
	if refreshed.Status != models.LoanOverdue {
		t.Errorf("Refresh() status = %v, want %v", refreshed.Status, models.LoanOverdue)
	}
}
