package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gitKheang/library-management-system/internal/models"
)

// MongoLedger is the production Ledger. It holds the books, bookCopies and
// users collections only to join loan views; it never mutates them.
type MongoLedger struct {
	Loans  *mongo.Collection
	Books  *mongo.Collection
	Copies *mongo.Collection
	Users  *mongo.Collection
}

func NewMongoLedger(loans, books, copies, users *mongo.Collection) *MongoLedger {
	return &MongoLedger{Loans: loans, Books: books, Copies: copies, Users: users}
}

func (l *MongoLedger) OpenLoan(ctx context.Context, userID, bookID, copyID string, dueDate time.Time) (models.Loan, error) {
	now := time.Now()
	loan := models.Loan{
		ID:           uuid.NewString(),
		UserID:       userID,
		BookID:       bookID,
		CopyID:       copyID,
		BorrowDate:   now,
		DueDate:      dueDate,
		ReturnDate:   nil,
		Status:       models.LoanBorrowed,
		ReminderSent: false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := l.Loans.InsertOne(ctx, loan); err != nil {
		return models.Loan{}, err
	}
	return loan, nil
}

func (l *MongoLedger) CloseLoan(ctx context.Context, loanID string) (models.Loan, error) {
	now := time.Now()

	// Conditional on returnDate still being null, so a concurrent or
	// repeated return cannot close the loan twice.
	var closed models.Loan
	err := l.Loans.FindOneAndUpdate(ctx,
		bson.M{"_id": loanID, "returnDate": nil},
		bson.M{"$set": bson.M{
			"returnDate": now,
			"status":     models.LoanReturned,
			"updatedAt":  now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&closed)
	if err == nil {
		return closed, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Loan{}, err
	}

	// Distinguish a missing loan from one already returned.
	count, countErr := l.Loans.CountDocuments(ctx, bson.M{"_id": loanID})
	if countErr != nil {
		return models.Loan{}, countErr
	}
	if count == 0 {
		return models.Loan{}, ErrLoanNotFound
	}
	return models.Loan{}, ErrAlreadyReturned
}

func (l *MongoLedger) FindLoan(ctx context.Context, loanID string) (models.Loan, error) {
	var loan models.Loan
	err := l.Loans.FindOne(ctx, bson.M{"_id": loanID}).Decode(&loan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Loan{}, ErrLoanNotFound
		}
		return models.Loan{}, err
	}
	return loan, nil
}

func (l *MongoLedger) MarkReminderSent(ctx context.Context, loanID string) error {
	loan, err := l.FindLoan(ctx, loanID)
	if err != nil {
		return err
	}
	if DeriveStatus(loan.ReturnDate, loan.DueDate, time.Now()) != models.LoanOverdue {
		return ErrNotOverdue
	}

	_, err = l.Loans.UpdateOne(ctx,
		bson.M{"_id": loanID},
		bson.M{"$set": bson.M{"reminderSent": true, "updatedAt": time.Now()}},
	)
	return err
}

func (l *MongoLedger) LoansForUser(ctx context.Context, userID string) ([]models.LoanView, error) {
	return l.views(ctx, bson.M{"userId": userID}, nil, 0)
}

func (l *MongoLedger) AllLoans(ctx context.Context) ([]models.LoanView, error) {
	return l.views(ctx, bson.M{}, nil, 0)
}

func (l *MongoLedger) RecentLoans(ctx context.Context, limit int) ([]models.LoanView, error) {
	return l.views(ctx, bson.M{}, bson.D{{Key: "borrowDate", Value: -1}}, limit)
}

func (l *MongoLedger) LoanView(ctx context.Context, loanID string) (models.LoanView, error) {
	views, err := l.views(ctx, bson.M{"_id": loanID}, nil, 0)
	if err != nil {
		return models.LoanView{}, err
	}
	if len(views) == 0 {
		return models.LoanView{}, ErrLoanNotFound
	}
	return views[0], nil
}

// views runs the loan/book/copy/user join and re-derives each status at read
// time. Loans whose book or copy was cascade-deleted keep a nil join side.
func (l *MongoLedger) views(ctx context.Context, match bson.M, sort bson.D, limit int) ([]models.LoanView, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
	}
	if sort != nil {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	pipeline = append(pipeline,
		lookup(l.Books.Name(), "bookId", "book"),
		lookup(l.Copies.Name(), "copyId", "copy"),
		lookup(l.Users.Name(), "userId", "user"),
		unwind("book"),
		unwind("copy"),
		unwind("user"),
		bson.D{{Key: "$project", Value: bson.M{"user.passwordHash": 0}}},
	)

	cursor, err := l.Loans.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var views []models.LoanView
	if err := cursor.All(ctx, &views); err != nil {
		return nil, err
	}

	now := time.Now()
	return lo.Map(views, func(v models.LoanView, _ int) models.LoanView {
		v.Loan = Refresh(v.Loan, now)
		return v
	}), nil
}

func lookup(from, localField, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.M{
		"from":         from,
		"localField":   localField,
		"foreignField": "_id",
		"as":           as,
	}}}
}

func unwind(field string) bson.D {
	return bson.D{{Key: "$unwind", Value: bson.M{
		"path":                       "$" + field,
		"preserveNullAndEmptyArrays": true,
	}}}
}

func (l *MongoLedger) ListLoans(ctx context.Context) ([]models.Loan, error) {
	cursor, err := l.Loans.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var loans []models.Loan
	if err := cursor.All(ctx, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

func (l *MongoLedger) OpenLoansForUser(ctx context.Context, userID string) ([]models.Loan, error) {
	cursor, err := l.Loans.Find(ctx, bson.M{"userId": userID, "returnDate": nil})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var loans []models.Loan
	if err := cursor.All(ctx, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

func (l *MongoLedger) DeleteForBook(ctx context.Context, bookID string) error {
	_, err := l.Loans.DeleteMany(ctx, bson.M{"bookId": bookID})
	return err
}

func (l *MongoLedger) DeleteForUser(ctx context.Context, userID string) error {
	_, err := l.Loans.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}
