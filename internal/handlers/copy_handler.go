package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gitKheang/library-management-system/internal/constants"
	"github.com/gitKheang/library-management-system/internal/copypool"
	"github.com/gitKheang/library-management-system/internal/middleware"
	"github.com/gitKheang/library-management-system/internal/models"
	"github.com/gitKheang/library-management-system/internal/utils"
)

type CopyHandler struct {
	Pool        copypool.Pool
	AuditLogger utils.Logger
}

// GET /api/admin/books/{id}/copies
func (h *CopyHandler) GetCopies(w http.ResponseWriter, r *http.Request) {
	bookID := mux.Vars(r)["id"]

	copies, err := h.Pool.CopiesForBook(r.Context(), bookID)
	if err != nil {
		utils.JSONError(w, "Failed to fetch copies", http.StatusInternalServerError)
		return
	}
	if copies == nil {
		copies = []models.Copy{}
	}

	json.NewEncoder(w).Encode(copies)
}

// PATCH /api/admin/copies/{id}
func (h *CopyHandler) UpdateCopyStatus(w http.ResponseWriter, r *http.Request) {
	copyID := mux.Vars(r)["id"]

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	if !models.IsValidCopyStatus(req.Status) {
		utils.JSONError(w, "Invalid status value", http.StatusBadRequest)
		return
	}

	err := h.Pool.SetStatus(r.Context(), copyID, models.CopyStatus(req.Status))
	if err != nil {
		if errors.Is(err, copypool.ErrCopyNotFound) {
			utils.JSONError(w, "Copy not found", http.StatusNotFound)
			return
		}
		utils.JSONError(w, "Update failed", http.StatusInternalServerError)
		return
	}

	userID, _ := middleware.RequesterFromContext(r.Context())
	h.AuditLogger.Log(r.Context(), models.CopyEntity, constants.Update, userID, map[string]string{
		"copyId": copyID,
		"status": req.Status,
	})

	json.NewEncoder(w).Encode(map[string]string{"message": "Copy updated"})
}
