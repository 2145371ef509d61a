package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gitKheang/library-management-system/internal/circulation"
	"github.com/gitKheang/library-management-system/internal/constants"
	"github.com/gitKheang/library-management-system/internal/copypool"
	"github.com/gitKheang/library-management-system/internal/middleware"
	"github.com/gitKheang/library-management-system/internal/models"
	"github.com/gitKheang/library-management-system/internal/utils"
)

type BookHandler struct {
	BookCol     *mongo.Collection
	Pool        copypool.Pool
	Svc         *circulation.Service
	AuditLogger utils.Logger
}

func NewBookHandler(bookCol *mongo.Collection, pool copypool.Pool, svc *circulation.Service, logger utils.Logger) *BookHandler {
	return &BookHandler{BookCol: bookCol, Pool: pool, Svc: svc, AuditLogger: logger}
}

type BookPayload struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"ISBN"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	PublicationYear int    `json:"publicationYear"`
	ShelfLocation   string `json:"shelfLocation"`
	NumberOfCopies  int    `json:"numberOfCopies"`
	ImageURL        string `json:"imageUrl"`
}

// GET /api/books/categories
func (h *BookHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	raw, err := h.BookCol.Distinct(r.Context(), "category", bson.M{"isActive": true})
	if err != nil {
		utils.JSONError(w, "Failed to get categories", http.StatusInternalServerError)
		return
	}

	categories := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)

	json.NewEncoder(w).Encode(categories)
}

// GET /api/books?search=&category=
func (h *BookHandler) GetBooks(w http.ResponseWriter, r *http.Request) {
	match := bson.M{"isActive": true}
	applySearch(match, r.URL.Query().Get("search"))
	if category := r.URL.Query().Get("category"); category != "" && category != "all" {
		match["category"] = category
	}

	books, err := h.booksWithAvailability(r, match, false)
	if err != nil {
		utils.JSONError(w, "Failed to fetch books", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(books)
}

// GET /api/books/available-for-loans
func (h *BookHandler) GetAvailableForLoans(w http.ResponseWriter, r *http.Request) {
	books, err := h.booksWithAvailability(r, bson.M{"isActive": true}, true)
	if err != nil {
		utils.JSONError(w, "Failed to fetch books", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(books)
}

// GET /api/books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	books, err := h.booksWithAvailability(r, bson.M{"_id": id}, false)
	if err != nil {
		utils.JSONError(w, "Failed to fetch book", http.StatusInternalServerError)
		return
	}
	if len(books) == 0 {
		utils.JSONError(w, "Book not found", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(books[0])
}

// GET /api/admin/books?search=
func (h *BookHandler) GetAdminBooks(w http.ResponseWriter, r *http.Request) {
	match := bson.M{}
	applySearch(match, r.URL.Query().Get("search"))

	books, err := h.booksWithAvailability(r, match, false)
	if err != nil {
		utils.JSONError(w, "Failed to fetch books", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(books)
}

// POST /api/admin/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var payload BookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.JSONError(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	if payload.Title == "" {
		utils.JSONError(w, "Title is required", http.StatusBadRequest)
		return
	}

	now := time.Now()
	book := models.Book{
		ID:              uuid.NewString(),
		Title:           payload.Title,
		Author:          payload.Author,
		ISBN:            payload.ISBN,
		Description:     payload.Description,
		Category:        payload.Category,
		PublicationYear: payload.PublicationYear,
		ShelfLocation:   payload.ShelfLocation,
		IsActive:        true,
		ImageURL:        payload.ImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := h.BookCol.InsertOne(r.Context(), book); err != nil {
		utils.JSONError(w, "Insert failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if _, err := h.Pool.AddCopies(r.Context(), book.ID, book.Title, payload.NumberOfCopies); err != nil {
		utils.JSONError(w, "Failed to create copies: "+err.Error(), http.StatusInternalServerError)
		return
	}

	userID, _ := middleware.RequesterFromContext(r.Context())
	h.AuditLogger.Log(r.Context(), models.BookEntity, constants.Create, userID, book)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.BookWithAvailability{
		Book:            book,
		TotalCopies:     int64(payload.NumberOfCopies),
		AvailableCopies: int64(payload.NumberOfCopies),
	})
}

// PUT /api/admin/books/{id}
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var payload BookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.JSONError(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	update := bson.M{
		"title":           payload.Title,
		"author":          payload.Author,
		"ISBN":            payload.ISBN,
		"description":     payload.Description,
		"category":        payload.Category,
		"publicationYear": payload.PublicationYear,
		"shelfLocation":   payload.ShelfLocation,
		"imageUrl":        payload.ImageURL,
		"updatedAt":       time.Now(),
	}

	res, err := h.BookCol.UpdateOne(r.Context(), bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		utils.JSONError(w, "Update failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		utils.JSONError(w, "Book not found", http.StatusNotFound)
		return
	}

	// Copy counts only grow; there is no copy-removal operation.
	if payload.NumberOfCopies > 0 {
		total, _, err := h.Pool.Counts(r.Context(), id)
		if err != nil {
			utils.JSONError(w, "Failed to count copies", http.StatusInternalServerError)
			return
		}
		if int64(payload.NumberOfCopies) > total {
			if _, err := h.Pool.AddCopies(r.Context(), id, payload.Title, payload.NumberOfCopies-int(total)); err != nil {
				utils.JSONError(w, "Failed to add copies: "+err.Error(), http.StatusInternalServerError)
				return
			}
		}
	}

	userID, _ := middleware.RequesterFromContext(r.Context())
	h.AuditLogger.Log(r.Context(), models.BookEntity, constants.Update, userID, update)

	books, err := h.booksWithAvailability(r, bson.M{"_id": id}, false)
	if err != nil || len(books) == 0 {
		utils.JSONError(w, "Failed to fetch updated book", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(books[0])
}

// DELETE /api/admin/books/{id}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.Svc.DeleteBook(r.Context(), id); err != nil {
		if errors.Is(err, circulation.ErrBookNotFound) {
			utils.JSONError(w, "Book not found", http.StatusNotFound)
			return
		}
		utils.JSONError(w, "Delete failed", http.StatusInternalServerError)
		return
	}

	userID, _ := middleware.RequesterFromContext(r.Context())
	h.AuditLogger.Log(r.Context(), models.BookEntity, constants.Delete, userID, id)

	w.WriteHeader(http.StatusNoContent)
}

func applySearch(match bson.M, search string) {
	if search == "" {
		return
	}
	regex := primitive.Regex{Pattern: search, Options: "i"}
	match["$or"] = bson.A{
		bson.M{"title": regex},
		bson.M{"author": regex},
		bson.M{"ISBN": regex},
	}
}

// booksWithAvailability joins each matched book with its copy counts.
func (h *BookHandler) booksWithAvailability(r *http.Request, match bson.M, onlyAvailable bool) ([]models.BookWithAvailability, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "bookCopies",
			"localField":   "_id",
			"foreignField": "bookId",
			"as":           "copies",
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"totalCopies": bson.M{"$size": "$copies"},
			"availableCopies": bson.M{"$size": bson.M{"$filter": bson.M{
				"input": "$copies",
				"as":    "copy",
				"cond":  bson.M{"$eq": bson.A{"$$copy.status", models.CopyAvailable}},
			}}},
		}}},
	}
	if onlyAvailable {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"availableCopies": bson.M{"$gt": 0}}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: bson.M{"copies": 0}}})

	cursor, err := h.BookCol.Aggregate(r.Context(), pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(r.Context())

	books := []models.BookWithAvailability{}
	if err := cursor.All(r.Context(), &books); err != nil {
		return nil, err
	}
	return books, nil
}
