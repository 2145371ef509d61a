package models

import "time"

type Book struct {
	ID              string    `bson:"_id" json:"_id"`
	Title           string    `bson:"title" json:"title"`
	Author          string    `bson:"author" json:"author"`
	ISBN            string    `bson:"ISBN" json:"ISBN"`
	Description     string    `bson:"description" json:"description"`
	Category        string    `bson:"category" json:"category"`
	PublicationYear int       `bson:"publicationYear" json:"publicationYear"`
	ShelfLocation   string    `bson:"shelfLocation" json:"shelfLocation"`
	IsActive        bool      `bson:"isActive" json:"isActive"`
	ImageURL        string    `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BookWithAvailability is a Book joined with its copy counts for catalog views.
type BookWithAvailability struct {
	Book            `bson:",inline"`
	TotalCopies     int64 `bson:"totalCopies" json:"totalCopies"`
	AvailableCopies int64 `bson:"availableCopies" json:"availableCopies"`
}

const (
	BookEntity = "book"
)
