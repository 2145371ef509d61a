package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/gitKheang/library-management-system/internal/constants"
	"github.com/gitKheang/library-management-system/internal/middleware"
	"github.com/gitKheang/library-management-system/internal/models"
	"github.com/gitKheang/library-management-system/internal/utils"
)

type AuthHandler struct {
	UserCol     *mongo.Collection
	AuditLogger utils.Logger
}

type RegisterRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	StudentID string `json:"studentId"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		utils.JSONError(w, "Name, email and password are required", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(req.Email)

	count, err := h.UserCol.CountDocuments(r.Context(), bson.M{"email": email})
	if err != nil {
		utils.JSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}
	if count > 0 {
		utils.JSONError(w, "Email already exists", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	user := models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hash),
		StudentID:    req.StudentID,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := h.UserCol.InsertOne(r.Context(), user); err != nil {
		utils.JSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.Role)
	if err != nil {
		utils.JSONError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	h.AuditLogger.Log(r.Context(), models.UserEntity, constants.Register, user.ID, user.Email)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	var user models.User
	err := h.UserCol.FindOne(r.Context(), bson.M{"email": strings.ToLower(req.Email)}).Decode(&user)
	if err != nil {
		utils.JSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if user.Status == models.StatusBlocked {
		utils.JSONError(w, "Account is blocked", http.StatusForbidden)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		utils.JSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.Role)
	if err != nil {
		utils.JSONError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.RequesterFromContext(r.Context())
	if userID == "" {
		utils.JSONError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var user models.User
	err := h.UserCol.FindOne(r.Context(), bson.M{"_id": userID},
		options.FindOne().SetProjection(bson.M{"passwordHash": 0}),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.JSONError(w, "User not found", http.StatusNotFound)
			return
		}
		utils.JSONError(w, "Failed to get user", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(user)
}
