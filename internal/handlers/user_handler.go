package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/gitKheang/library-management-system/internal/circulation"
	"github.com/gitKheang/library-management-system/internal/constants"
	"github.com/gitKheang/library-management-system/internal/middleware"
	"github.com/gitKheang/library-management-system/internal/models"
	"github.com/gitKheang/library-management-system/internal/utils"
)

type UserHandler struct {
	UserCol     *mongo.Collection
	Svc         *circulation.Service
	AuditLogger utils.Logger
}

func NewUserHandler(userCol *mongo.Collection, svc *circulation.Service, logger utils.Logger) *UserHandler {
	return &UserHandler{UserCol: userCol, Svc: svc, AuditLogger: logger}
}

// GET /api/admin/users
func (h *UserHandler) GetAdminUsers(w http.ResponseWriter, r *http.Request) {
	cursor, err := h.UserCol.Find(r.Context(), bson.M{},
		options.Find().SetProjection(bson.M{"passwordHash": 0}),
	)
	if err != nil {
		utils.JSONError(w, "Failed to get users", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(r.Context())

	users := []models.User{}
	if err := cursor.All(r.Context(), &users); err != nil {
		utils.JSONError(w, "Error decoding users", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(users)
}

// POST /api/admin/users/staff
func (h *UserHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(req.Email)

	count, err := h.UserCol.CountDocuments(r.Context(), bson.M{"email": email})
	if err != nil {
		utils.JSONError(w, "Failed to create staff member", http.StatusInternalServerError)
		return
	}
	if count > 0 {
		utils.JSONError(w, "Email already exists", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(w, "Failed to create staff member", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	staff := models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleStaff,
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := h.UserCol.InsertOne(r.Context(), staff); err != nil {
		utils.JSONError(w, "Failed to create staff member", http.StatusInternalServerError)
		return
	}

	requesterID, _ := middleware.RequesterFromContext(r.Context())
	h.AuditLogger.Log(r.Context(), models.UserEntity, constants.Create, requesterID, staff.Email)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(staff)
}

// DELETE /api/admin/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["id"]
	requesterID, requesterRole := middleware.RequesterFromContext(r.Context())

	if err := h.Svc.DeleteUser(r.Context(), requesterID, requesterRole, targetID); err != nil {
		switch {
		case errors.Is(err, circulation.ErrUserNotFound):
			utils.JSONError(w, "User not found", http.StatusNotFound)
		case errors.Is(err, circulation.ErrSelfDelete):
			utils.JSONError(w, "You cannot delete your own account", http.StatusBadRequest)
		case errors.Is(err, circulation.ErrForbidden):
			utils.JSONError(w, "Only administrators can remove staff or admin accounts", http.StatusForbidden)
		default:
			utils.JSONError(w, "Failed to delete user", http.StatusInternalServerError)
		}
		return
	}

	h.AuditLogger.Log(r.Context(), models.UserEntity, constants.Delete, requesterID, targetID)

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/users/request-password-reset
func (h *UserHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	var user models.User
	err := h.UserCol.FindOne(r.Context(), bson.M{"email": strings.ToLower(req.Email)}).Decode(&user)
	if err != nil {
		utils.JSONError(w, "User not found", http.StatusNotFound)
		return
	}

	if user.Role != models.RoleUser {
		utils.JSONError(w, "Only student accounts can request a reset through this form", http.StatusBadRequest)
		return
	}

	_, err = h.UserCol.UpdateOne(r.Context(),
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"needsPasswordReset": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		utils.JSONError(w, "Failed to request password reset", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/admin/users/{id}/reset-password
func (h *UserHandler) ResetUserPassword(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["id"]

	var req struct {
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
		utils.JSONError(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(w, "Failed to reset password", http.StatusInternalServerError)
		return
	}

	res, err := h.UserCol.UpdateOne(r.Context(),
		bson.M{"_id": targetID},
		bson.M{"$set": bson.M{
			"passwordHash":       string(hash),
			"needsPasswordReset": false,
			"updatedAt":          time.Now(),
		}},
	)
	if err != nil {
		utils.JSONError(w, "Failed to reset password", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		utils.JSONError(w, "User not found", http.StatusNotFound)
		return
	}

	requesterID, _ := middleware.RequesterFromContext(r.Context())
	h.AuditLogger.Log(r.Context(), models.UserEntity, constants.ResetPassword, requesterID, targetID)

	w.WriteHeader(http.StatusNoContent)
}
