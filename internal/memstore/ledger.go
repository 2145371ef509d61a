package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gitKheang/library-management-system/internal/ledger"
	"github.com/gitKheang/library-management-system/internal/models"
)

// Ledger implements ledger.Ledger over the shared store.
type Ledger struct {
	s *Store
}

var _ ledger.Ledger = (*Ledger)(nil)

func (l *Ledger) OpenLoan(_ context.Context, userID, bookID, copyID string, dueDate time.Time) (models.Loan, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	now := time.Now()
	loan := models.Loan{
		ID:         uuid.NewString(),
		UserID:     userID,
		BookID:     bookID,
		CopyID:     copyID,
		BorrowDate: now,
		DueDate:    dueDate,
		Status:     models.LoanBorrowed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	l.s.loans[loan.ID] = loan
	l.s.loanOrder = append(l.s.loanOrder, loan.ID)
	return loan, nil
}

func (l *Ledger) CloseLoan(_ context.Context, loanID string) (models.Loan, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	loan, ok := l.s.loans[loanID]
	if !ok {
		return models.Loan{}, ledger.ErrLoanNotFound
	}
	if loan.ReturnDate != nil {
		return models.Loan{}, ledger.ErrAlreadyReturned
	}

	now := time.Now()
	loan.ReturnDate = &now
	loan.Status = models.LoanReturned
	loan.UpdatedAt = now
	l.s.loans[loanID] = loan
	return loan, nil
}

func (l *Ledger) FindLoan(_ context.Context, loanID string) (models.Loan, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	loan, ok := l.s.loans[loanID]
	if !ok {
		return models.Loan{}, ledger.ErrLoanNotFound
	}
	return loan, nil
}

func (l *Ledger) MarkReminderSent(_ context.Context, loanID string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	loan, ok := l.s.loans[loanID]
	if !ok {
		return ledger.ErrLoanNotFound
	}
	if ledger.DeriveStatus(loan.ReturnDate, loan.DueDate, time.Now()) != models.LoanOverdue {
		return ledger.ErrNotOverdue
	}
	loan.ReminderSent = true
	loan.UpdatedAt = time.Now()
	l.s.loans[loanID] = loan
	return nil
}

func (l *Ledger) LoansForUser(_ context.Context, userID string) ([]models.LoanView, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	var views []models.LoanView
	for _, loan := range l.s.orderedLoans() {
		if loan.UserID == userID {
			views = append(views, l.view(loan))
		}
	}
	return views, nil
}

func (l *Ledger) AllLoans(_ context.Context) ([]models.LoanView, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	loans := l.s.orderedLoans()
	views := make([]models.LoanView, 0, len(loans))
	for _, loan := range loans {
		views = append(views, l.view(loan))
	}
	return views, nil
}

func (l *Ledger) RecentLoans(_ context.Context, limit int) ([]models.LoanView, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	loans := l.s.orderedLoans()
	// Stable sort over insertion order breaks borrowDate ties predictably.
	sort.SliceStable(loans, func(i, j int) bool {
		return loans[i].BorrowDate.After(loans[j].BorrowDate)
	})
	if limit > 0 && len(loans) > limit {
		loans = loans[:limit]
	}

	views := make([]models.LoanView, 0, len(loans))
	for _, loan := range loans {
		views = append(views, l.view(loan))
	}
	return views, nil
}

func (l *Ledger) LoanView(_ context.Context, loanID string) (models.LoanView, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	loan, ok := l.s.loans[loanID]
	if !ok {
		return models.LoanView{}, ledger.ErrLoanNotFound
	}
	return l.view(loan), nil
}

// view joins a loan with its book, copy and user and re-derives the status.
// Caller holds the store mutex. Cascade-deleted join sides stay nil.
func (l *Ledger) view(loan models.Loan) models.LoanView {
	v := models.LoanView{Loan: ledger.Refresh(loan, time.Now())}
	if book, ok := l.s.books[loan.BookID]; ok {
		v.Book = &book
	}
	if c, ok := l.s.copies[loan.CopyID]; ok {
		v.Copy = &c
	}
	if user, ok := l.s.users[loan.UserID]; ok {
		user.PasswordHash = ""
		v.User = &user
	}
	return v
}

func (l *Ledger) ListLoans(_ context.Context) ([]models.Loan, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.orderedLoans(), nil
}

func (l *Ledger) OpenLoansForUser(_ context.Context, userID string) ([]models.Loan, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	var out []models.Loan
	for _, loan := range l.s.orderedLoans() {
		if loan.UserID == userID && loan.ReturnDate == nil {
			out = append(out, loan)
		}
	}
	return out, nil
}

func (l *Ledger) DeleteForBook(_ context.Context, bookID string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	for id, loan := range l.s.loans {
		if loan.BookID == bookID {
			delete(l.s.loans, id)
		}
	}
	return nil
}

func (l *Ledger) DeleteForUser(_ context.Context, userID string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	for id, loan := range l.s.loans {
		if loan.UserID == userID {
			delete(l.s.loans, id)
		}
	}
	return nil
}
