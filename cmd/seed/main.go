// Command seed wipes the database and loads demo data: an admin, a staff
// member, two students, a small catalog with copies, and a few loans
// (including one already overdue).
package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/gitKheang/library-management-system/configs"
	"github.com/gitKheang/library-management-system/internal/copypool"
	"github.com/gitKheang/library-management-system/internal/db"
	"github.com/gitKheang/library-management-system/internal/ledger"
	"github.com/gitKheang/library-management-system/internal/models"
)

func main() {
	cfg := configs.LoadConfig()
	db.Connect(cfg.MongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	bookCol := db.GetCollection(cfg.DBName, "books")
	copyCol := db.GetCollection(cfg.DBName, "bookCopies")
	loanCol := db.GetCollection(cfg.DBName, "loans")
	userCol := db.GetCollection(cfg.DBName, "users")

	for _, col := range []string{"books", "bookCopies", "loans", "users", "audit_logs"} {
		if _, err := db.GetCollection(cfg.DBName, col).DeleteMany(ctx, bson.M{}); err != nil {
			log.Fatalf("Failed to clear %s: %v", col, err)
		}
	}
	log.Info("Existing data cleared")

	now := time.Now()

	users := []models.User{
		newUser("Admin", "admin@library.edu", "admin123", "", models.RoleAdmin, now),
		newUser("Sok Dara", "staff@library.edu", "staff123", "", models.RoleStaff, now),
		newUser("Chan Vathana", "vathana@student.edu", "student123", "S-2024-001", models.RoleUser, now),
		newUser("Kim Sreyleak", "sreyleak@student.edu", "student123", "S-2024-002", models.RoleUser, now),
	}
	userDocs := make([]interface{}, len(users))
	for i, u := range users {
		userDocs[i] = u
	}
	if _, err := userCol.InsertMany(ctx, userDocs); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}
	log.Infof("Inserted %d users", len(users))

	pool := copypool.NewMongoPool(copyCol)
	ldg := ledger.NewMongoLedger(loanCol, bookCol, copyCol, userCol)

	books := []struct {
		book   models.Book
		copies int
	}{
		{newBook("Clean Code", "Robert C. Martin", "9780132350884", "Software", 2008, now), 3},
		{newBook("The Pragmatic Programmer", "Andrew Hunt", "9780201616224", "Software", 1999, now), 2},
		{newBook("Designing Data-Intensive Applications", "Martin Kleppmann", "9781449373320", "Software", 2017, now), 2},
		{newBook("A Short History of Cambodia", "John Tully", "9781741147636", "History", 2005, now), 1},
	}

	for _, entry := range books {
		if _, err := bookCol.InsertOne(ctx, entry.book); err != nil {
			log.Fatalf("Failed to seed book %q: %v", entry.book.Title, err)
		}
		if _, err := pool.AddCopies(ctx, entry.book.ID, entry.book.Title, entry.copies); err != nil {
			log.Fatalf("Failed to seed copies for %q: %v", entry.book.Title, err)
		}
	}
	log.Infof("Inserted %d books with copies", len(books))

	// One current loan and one already-overdue loan for the first student.
	student := users[2]
	seedLoan(ctx, pool, ldg, books[0].book.ID, student.ID, now.AddDate(0, 0, 14))
	seedLoan(ctx, pool, ldg, books[1].book.ID, student.ID, now.AddDate(0, 0, -3))

	log.Info("Seeding complete")
}

func newUser(name, email, password, studentID string, role models.UserRole, now time.Time) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	return models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		StudentID:    studentID,
		Role:         role,
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newBook(title, author, isbn, category string, year int, now time.Time) models.Book {
	return models.Book{
		ID:              uuid.NewString(),
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		Category:        category,
		PublicationYear: year,
		ShelfLocation:   "A-1",
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func seedLoan(ctx context.Context, pool *copypool.MongoPool, ldg *ledger.MongoLedger, bookID, userID string, dueDate time.Time) {
	claimed, err := pool.ClaimAvailableCopy(ctx, bookID)
	if err != nil {
		log.Fatalf("Failed to claim copy for seeding: %v", err)
	}
	if _, err := ldg.OpenLoan(ctx, userID, bookID, claimed.ID, dueDate); err != nil {
		log.Fatalf("Failed to seed loan: %v", err)
	}
}
