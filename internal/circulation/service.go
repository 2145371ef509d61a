// Package circulation orchestrates the borrow/return workflows across the
// copy pool and the loan ledger. It is the only component that calls both in
// sequence, and it owns the cascade ordering for book and user deletion.
package circulation

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/gitKheang/library-management-system/internal/copypool"
	"github.com/gitKheang/library-management-system/internal/ledger"
	"github.com/gitKheang/library-management-system/internal/models"
	"github.com/gitKheang/library-management-system/internal/utils"
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrUserNotFound = errors.New("user not found")
	ErrSelfDelete   = errors.New("you cannot delete your own account")
	ErrForbidden    = errors.New("only administrators can remove staff or admin accounts")
)

// BookStore is the slice of the catalog the service needs for cascades and
// the dashboard.
type BookStore interface {
	Delete(ctx context.Context, bookID string) error
	CountActive(ctx context.Context) (int64, error)
}

// UserStore is the slice of the user directory the service needs.
type UserStore interface {
	Find(ctx context.Context, userID string) (models.User, error)
	Delete(ctx context.Context, userID string) error
	Count(ctx context.Context) (int64, error)
}

type Service struct {
	Pool   copypool.Pool
	Ledger ledger.Ledger
	Books  BookStore
	Users  UserStore
}

func NewService(pool copypool.Pool, ldg ledger.Ledger, books BookStore, users UserStore) *Service {
	return &Service{Pool: pool, Ledger: ldg, Books: books, Users: users}
}

// BorrowBook claims an available copy and records the loan against it. If
// the ledger write fails after a successful claim, the copy is released so
// it cannot be stranded as BORROWED with no loan.
func (s *Service) BorrowBook(ctx context.Context, userID, bookID string, dueDate time.Time) (models.LoanView, error) {
	claimed, err := s.Pool.ClaimAvailableCopy(ctx, bookID)
	if err != nil {
		return models.LoanView{}, err
	}

	loan, err := s.Ledger.OpenLoan(ctx, userID, bookID, claimed.ID, dueDate)
	if err != nil {
		if relErr := s.Pool.ReleaseCopy(ctx, claimed.ID); relErr != nil {
			log.WithError(relErr).WithField("copyId", claimed.ID).
				Error("failed to release copy after ledger write failure")
		}
		return models.LoanView{}, err
	}

	return s.Ledger.LoanView(ctx, loan.ID)
}

// ReturnBook closes the loan, then releases its copy. Release runs after
// every successful close so the copy invariant never depends on the close
// result being silently dropped.
func (s *Service) ReturnBook(ctx context.Context, loanID string) error {
	closed, err := s.Ledger.CloseLoan(ctx, loanID)
	if err != nil {
		return err
	}
	return s.Pool.ReleaseCopy(ctx, closed.CopyID)
}

// SendReminder marks the loan's one-way reminder flag and appends to the
// email log.
func (s *Service) SendReminder(ctx context.Context, loanID string) error {
	if err := s.Ledger.MarkReminderSent(ctx, loanID); err != nil {
		return err
	}
	loan, err := s.Ledger.FindLoan(ctx, loanID)
	if err != nil {
		return err
	}
	utils.AppendToEmailLog(loan.UserID, loan.ID)
	return nil
}

// SweepOverdueReminders sends a reminder for every overdue loan that has
// never been reminded. Used by the background sweeper; returns how many
// reminders went out.
func (s *Service) SweepOverdueReminders(ctx context.Context) (int, error) {
	loans, err := s.Ledger.ListLoans(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	sent := 0
	for _, loan := range loans {
		if loan.ReminderSent {
			continue
		}
		if ledger.DeriveStatus(loan.ReturnDate, loan.DueDate, now) != models.LoanOverdue {
			continue
		}
		if err := s.SendReminder(ctx, loan.ID); err != nil {
			log.WithError(err).WithField("loanId", loan.ID).Warn("reminder sweep skipped loan")
			continue
		}
		sent++
	}
	return sent, nil
}

// DeleteBook removes the book together with all of its copies and loans.
// The cascade is unconditional: open loans against the book become orphaned
// historical records.
func (s *Service) DeleteBook(ctx context.Context, bookID string) error {
	if err := s.Books.Delete(ctx, bookID); err != nil {
		return err
	}
	if err := s.Pool.DeleteForBook(ctx, bookID); err != nil {
		return err
	}
	return s.Ledger.DeleteForBook(ctx, bookID)
}

// DeleteUser releases the copies of the user's open loans before deleting
// the loans and the user, so no copy is left BORROWED with no owner.
func (s *Service) DeleteUser(ctx context.Context, requesterID string, requesterRole models.UserRole, userID string) error {
	target, err := s.Users.Find(ctx, userID)
	if err != nil {
		return err
	}
	if target.ID == requesterID {
		return ErrSelfDelete
	}
	if (target.Role == models.RoleAdmin || target.Role == models.RoleStaff) && requesterRole != models.RoleAdmin {
		return ErrForbidden
	}

	open, err := s.Ledger.OpenLoansForUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, loan := range open {
		if err := s.Pool.ReleaseCopy(ctx, loan.CopyID); err != nil {
			return err
		}
	}

	if err := s.Ledger.DeleteForUser(ctx, userID); err != nil {
		return err
	}
	return s.Users.Delete(ctx, userID)
}

func (s *Service) LoansForUser(ctx context.Context, userID string) ([]models.LoanView, error) {
	return s.Ledger.LoansForUser(ctx, userID)
}

func (s *Service) AllLoans(ctx context.Context) ([]models.LoanView, error) {
	return s.Ledger.AllLoans(ctx)
}

// Dashboard derives every loan's status at call time and partitions the
// open ones into active and overdue.
func (s *Service) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	activeBooks, err := s.Books.CountActive(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}
	totalUsers, err := s.Users.Count(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}
	loans, err := s.Ledger.ListLoans(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}

	now := time.Now()
	open := lo.Filter(loans, func(loan models.Loan, _ int) bool {
		return loan.ReturnDate == nil
	})
	overdue := lo.CountBy(open, func(loan models.Loan) bool {
		return ledger.DeriveStatus(loan.ReturnDate, loan.DueDate, now) == models.LoanOverdue
	})

	recent, err := s.Ledger.RecentLoans(ctx, 5)
	if err != nil {
		return models.DashboardStats{}, err
	}

	return models.DashboardStats{
		ActiveBooks:  activeBooks,
		TotalUsers:   totalUsers,
		ActiveLoans:  len(open) - overdue,
		OverdueLoans: overdue,
		RecentLoans:  recent,
	}, nil
}
