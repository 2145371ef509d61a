package circulation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitKheang/library-management-system/internal/circulation"
	"github.com/gitKheang/library-management-system/internal/copypool"
	"github.com/gitKheang/library-management-system/internal/ledger"
	"github.com/gitKheang/library-management-system/internal/memstore"
	"github.com/gitKheang/library-management-system/internal/models"
)

func newTestService(t *testing.T) (*circulation.Service, *memstore.Store) {
	t.Helper()
	store := memstore.NewStore()
	svc := circulation.NewService(store.Pool(), store.Ledger(), store.BookSet(), store.UserSet())
	return svc, store
}

func seedBook(t *testing.T, store *memstore.Store, id, title string, copies int) {
	t.Helper()
	store.PutBook(models.Book{ID: id, Title: title, IsActive: true})
	_, err := store.Pool().AddCopies(context.Background(), id, title, copies)
	require.NoError(t, err)
}

func TestService_BorrowReturnScenario(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedBook(t, store, "b1", "Clean Code", 2)
	store.PutUser(models.User{ID: "u1", Role: models.RoleUser})
	store.PutUser(models.User{ID: "u2", Role: models.RoleUser})

	due := time.Now().AddDate(0, 0, 14)

	first, err := svc.BorrowBook(ctx, "u1", "b1", due)
	require.NoError(t, err)
	assert.Equal(t, models.LoanBorrowed, first.Status)
	require.NotNil(t, first.Copy)
	assert.Equal(t, models.CopyBorrowed, first.Copy.Status)

	_, avail, err := store.Pool().Counts(ctx, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, avail)

	second, err := svc.BorrowBook(ctx, "u2", "b1", due)
	require.NoError(t, err)
	assert.NotEqual(t, first.CopyID, second.CopyID)

	_, err = svc.BorrowBook(ctx, "u1", "b1", due)
	assert.ErrorIs(t, err, copypool.ErrNoCopiesAvailable)

	require.NoError(t, svc.ReturnBook(ctx, first.ID))

	_, avail, err = store.Pool().Counts(ctx, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, avail)

	returned, err := store.Ledger().FindLoan(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanReturned, returned.Status)
	assert.NotNil(t, returned.ReturnDate)

	// Double return is rejected and must not re-release the copy.
	err = svc.ReturnBook(ctx, first.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyReturned)
	_, avail, err = store.Pool().Counts(ctx, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, avail)
}

type failingLedger struct {
	ledger.Ledger
	openErr error
}

func (f *failingLedger) OpenLoan(context.Context, string, string, string, time.Time) (models.Loan, error) {
	return models.Loan{}, f.openErr
}

func TestService_BorrowReleasesClaimOnLedgerFailure(t *testing.T) {
	store := memstore.NewStore()
	boom := errors.New("ledger write failed")
	svc := circulation.NewService(
		store.Pool(),
		&failingLedger{Ledger: store.Ledger(), openErr: boom},
		store.BookSet(),
		store.UserSet(),
	)
	ctx := context.Background()

	seedBook(t, store, "b1", "Clean Code", 1)

	_, err := svc.BorrowBook(ctx, "u1", "b1", time.Now().AddDate(0, 0, 14))
	assert.ErrorIs(t, err, boom)

	// The claimed copy must not be stranded as BORROWED.
	_, avail, countErr := store.Pool().Counts(ctx, "b1")
	require.NoError(t, countErr)
	assert.EqualValues(t, 1, avail)
}

func TestService_ReturnUnknownLoan(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.ReturnBook(context.Background(), "missing")
	assert.ErrorIs(t, err, ledger.ErrLoanNotFound)
}

func TestService_DeleteBookCascades(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedBook(t, store, "b1", "Clean Code", 2)
	store.PutUser(models.User{ID: "u1", Role: models.RoleUser})

	_, err := svc.BorrowBook(ctx, "u1", "b1", time.Now().AddDate(0, 0, 14))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBook(ctx, "b1"))

	_, err = store.BookSet().Find(ctx, "b1")
	assert.ErrorIs(t, err, circulation.ErrBookNotFound)

	copies, err := store.Pool().CopiesForBook(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, copies)

	loans, err := store.Ledger().ListLoans(ctx)
	require.NoError(t, err)
	assert.Empty(t, loans)

	assert.ErrorIs(t, svc.DeleteBook(ctx, "b1"), circulation.ErrBookNotFound)
}

func TestService_DeleteUserReleasesOpenLoans(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedBook(t, store, "b1", "Clean Code", 1)
	store.PutUser(models.User{ID: "admin", Role: models.RoleAdmin})
	store.PutUser(models.User{ID: "u1", Role: models.RoleUser})

	loan, err := svc.BorrowBook(ctx, "u1", "b1", time.Now().AddDate(0, 0, 14))
	require.NoError(t, err)

	_, avail, err := store.Pool().Counts(ctx, "b1")
	require.NoError(t, err)
	require.EqualValues(t, 0, avail)

	require.NoError(t, svc.DeleteUser(ctx, "admin", models.RoleAdmin, "u1"))

	// The borrowed copy is back in circulation with no owner left behind.
	_, avail, err = store.Pool().Counts(ctx, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, avail)

	_, err = store.Ledger().FindLoan(ctx, loan.ID)
	assert.ErrorIs(t, err, ledger.ErrLoanNotFound)

	_, err = store.UserSet().Find(ctx, "u1")
	assert.ErrorIs(t, err, circulation.ErrUserNotFound)
}

func TestService_DeleteUserAuthorization(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	store.PutUser(models.User{ID: "admin", Role: models.RoleAdmin})
	store.PutUser(models.User{ID: "staff", Role: models.RoleStaff})
	store.PutUser(models.User{ID: "staff2", Role: models.RoleStaff})
	store.PutUser(models.User{ID: "u1", Role: models.RoleUser})

	tests := []struct {
		name          string
		requesterID   string
		requesterRole models.UserRole
		targetID      string
		wantErr       error
	}{
		{"Self delete rejected", "admin", models.RoleAdmin, "admin", circulation.ErrSelfDelete},
		{"Staff cannot delete staff", "staff", models.RoleStaff, "staff2", circulation.ErrForbidden},
		{"Staff cannot delete admin", "staff", models.RoleStaff, "admin", circulation.ErrForbidden},
		{"Unknown target", "admin", models.RoleAdmin, "missing", circulation.ErrUserNotFound},
		{"Staff may delete student", "staff", models.RoleStaff, "u1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.DeleteUser(ctx, tt.requesterID, tt.requesterRole, tt.targetID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestService_Dashboard(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedBook(t, store, "b1", "Clean Code", 3)
	store.PutBook(models.Book{ID: "b2", Title: "Retired Title", IsActive: false})
	store.PutUser(models.User{ID: "u1", Role: models.RoleUser})
	store.PutUser(models.User{ID: "u2", Role: models.RoleUser})

	// One current loan, one overdue loan, one returned loan.
	current, err := svc.BorrowBook(ctx, "u1", "b1", time.Now().AddDate(0, 0, 14))
	require.NoError(t, err)
	overdue, err := svc.BorrowBook(ctx, "u2", "b1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	returned, err := svc.BorrowBook(ctx, "u1", "b1", time.Now().AddDate(0, 0, 14))
	require.NoError(t, err)
	require.NoError(t, svc.ReturnBook(ctx, returned.ID))

	stats, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 1, stats.ActiveBooks)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.Equal(t, 1, stats.ActiveLoans)
	assert.Equal(t, 1, stats.OverdueLoans)
	require.Len(t, stats.RecentLoans, 3)
	assert.Equal(t, returned.ID, stats.RecentLoans[0].ID)
	assert.Equal(t, overdue.ID, stats.RecentLoans[1].ID)
	assert.Equal(t, current.ID, stats.RecentLoans[2].ID)
}

func TestService_SweepOverdueReminders(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedBook(t, store, "b1", "Clean Code", 2)
	store.PutUser(models.User{ID: "u1", Role: models.RoleUser})

	_, err := svc.BorrowBook(ctx, "u1", "b1", time.Now().AddDate(0, 0, 14))
	require.NoError(t, err)
	overdue, err := svc.BorrowBook(ctx, "u1", "b1", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	sent, err := svc.SweepOverdueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	loan, err := store.Ledger().FindLoan(ctx, overdue.ID)
	require.NoError(t, err)
	assert.True(t, loan.ReminderSent)

	// Already-reminded loans are skipped on the next sweep.
	sent, err = svc.SweepOverdueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}
