package models

import "time"

type LoanStatus string

const (
	LoanBorrowed LoanStatus = "BORROWED"
	LoanOverdue  LoanStatus = "OVERDUE"
	LoanReturned LoanStatus = "RETURNED"

	LoanEntity = "loan"
)

// Loan ties one User to one Copy for a bounded time window. The stored
// Status field is a display cache; readers must recompute it from
// ReturnDate/DueDate against the current time.
type Loan struct {
	ID           string     `bson:"_id" json:"_id"`
	UserID       string     `bson:"userId" json:"userId"`
	BookID       string     `bson:"bookId" json:"bookId"`
	CopyID       string     `bson:"copyId" json:"copyId"`
	BorrowDate   time.Time  `bson:"borrowDate" json:"borrowDate"`
	DueDate      time.Time  `bson:"dueDate" json:"dueDate"`
	ReturnDate   *time.Time `bson:"returnDate" json:"returnDate"`
	Status       LoanStatus `bson:"status" json:"status"`
	ReminderSent bool       `bson:"reminderSent" json:"reminderSent"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// LoanView is a Loan joined with book/copy/user summaries for presentation.
// User is nil when the borrower no longer exists.
type LoanView struct {
	Loan `bson:",inline"`
	Book *Book `bson:"book,omitempty" json:"book,omitempty"`
	Copy *Copy `bson:"copy,omitempty" json:"copy,omitempty"`
	User *User `bson:"user,omitempty" json:"user,omitempty"`
}
