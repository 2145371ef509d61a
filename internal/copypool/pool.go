// Package copypool tracks the physical copies of each book and owns every
// copy status transition. Claiming a copy is a compare-and-swap on a single
// record, so two borrowers can never walk away with the same copy.
package copypool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gitKheang/library-management-system/internal/models"
)

var (
	// ErrNoCopiesAvailable means no AVAILABLE copy existed at the moment of
	// the claim. Expected under load; not retried automatically.
	ErrNoCopiesAvailable = errors.New("no copies available for this book")

	ErrCopyNotFound = errors.New("copy not found")
)

// Pool is the copy inventory. The Mongo implementation lives in this
// package; memstore provides the in-memory double.
type Pool interface {
	// AddCopies creates count new AVAILABLE copies of the book, with display
	// codes continuing from the book's current copy count.
	AddCopies(ctx context.Context, bookID, title string, count int) ([]models.Copy, error)

	// ClaimAvailableCopy atomically flips one AVAILABLE copy of the book to
	// BORROWED and returns it, or fails with ErrNoCopiesAvailable.
	ClaimAvailableCopy(ctx context.Context, bookID string) (models.Copy, error)

	// ReleaseCopy sets the copy back to AVAILABLE regardless of its current
	// status. Idempotent; releasing a missing copy is a no-op.
	ReleaseCopy(ctx context.Context, copyID string) error

	// Counts returns (total, available) for the book in a single pass.
	Counts(ctx context.Context, bookID string) (total, available int64, err error)

	// SetStatus is the administrative override (e.g. marking a copy LOST).
	SetStatus(ctx context.Context, copyID string, status models.CopyStatus) error

	CopiesForBook(ctx context.Context, bookID string) ([]models.Copy, error)

	// DeleteForBook removes every copy of the book. Cascade support only.
	DeleteForBook(ctx context.Context, bookID string) error
}

// CopyCode builds the human-readable code for the index-th copy of a title:
// the uppercased first letters of the title's words, truncated to 4
// characters, plus a zero-padded sequence number. "Clean Code", 1 -> "CC-001".
func CopyCode(title string, index int) string {
	var initials []rune
	for _, word := range strings.Fields(title) {
		initials = append(initials, unicode.ToUpper([]rune(word)[0]))
	}
	if len(initials) > 4 {
		initials = initials[:4]
	}
	return fmt.Sprintf("%s-%03d", string(initials), index)
}
