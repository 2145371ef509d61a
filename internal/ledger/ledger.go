// Package ledger records loan transactions and derives loan status from the
// stored timestamps and wall-clock time. The persisted status field is a
// display cache; DeriveStatus is the single source of truth and every read
// path recomputes it.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/gitKheang/library-management-system/internal/models"
)

var (
	ErrLoanNotFound = errors.New("loan not found")

	// ErrAlreadyReturned guards against double-return. A stale client view,
	// not a transient failure; callers must not retry.
	ErrAlreadyReturned = errors.New("loan already returned")

	// ErrNotOverdue rejects reminders for loans that are not overdue at call
	// time.
	ErrNotOverdue = errors.New("only overdue loans can receive reminders")
)

// Ledger owns loan records. It never claims or releases copies itself; the
// circulation service sequences those calls.
type Ledger interface {
	// OpenLoan records a loan against a copy the caller has already claimed.
	OpenLoan(ctx context.Context, userID, bookID, copyID string, dueDate time.Time) (models.Loan, error)

	// CloseLoan sets the return timestamp once. ErrAlreadyReturned on a
	// second attempt, ErrLoanNotFound for an unknown id.
	CloseLoan(ctx context.Context, loanID string) (models.Loan, error)

	FindLoan(ctx context.Context, loanID string) (models.Loan, error)

	// MarkReminderSent sets the one-way reminder flag. Fails with
	// ErrNotOverdue unless the loan's derived status is OVERDUE right now.
	MarkReminderSent(ctx context.Context, loanID string) error

	LoansForUser(ctx context.Context, userID string) ([]models.LoanView, error)
	AllLoans(ctx context.Context) ([]models.LoanView, error)
	RecentLoans(ctx context.Context, limit int) ([]models.LoanView, error)
	LoanView(ctx context.Context, loanID string) (models.LoanView, error)

	// ListLoans returns raw loan records, for aggregate counting.
	ListLoans(ctx context.Context) ([]models.Loan, error)
	OpenLoansForUser(ctx context.Context, userID string) ([]models.Loan, error)

	DeleteForBook(ctx context.Context, bookID string) error
	DeleteForUser(ctx context.Context, userID string) error
}

// DeriveStatus computes a loan's current status. A set return timestamp
// freezes the loan at RETURNED regardless of the due date; otherwise the
// loan is OVERDUE once now passes dueDate.
func DeriveStatus(returnDate *time.Time, dueDate, now time.Time) models.LoanStatus {
	if returnDate != nil {
		return models.LoanReturned
	}
	if now.After(dueDate) {
		return models.LoanOverdue
	}
	return models.LoanBorrowed
}

// Refresh overwrites the cached status on a loan with the freshly derived
// one.
func Refresh(loan models.Loan, now time.Time) models.Loan {
	loan.Status = DeriveStatus(loan.ReturnDate, loan.DueDate, now)
	return loan
}
