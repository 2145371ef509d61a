package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/gitKheang/library-management-system/internal/circulation"
	"github.com/gitKheang/library-management-system/internal/constants"
	"github.com/gitKheang/library-management-system/internal/copypool"
	"github.com/gitKheang/library-management-system/internal/ledger"
	"github.com/gitKheang/library-management-system/internal/middleware"
	"github.com/gitKheang/library-management-system/internal/models"
	"github.com/gitKheang/library-management-system/internal/utils"
)

type LoanHandler struct {
	Svc         *circulation.Service
	AuditLogger utils.Logger
}

func NewLoanHandler(svc *circulation.Service, logger utils.Logger) *LoanHandler {
	return &LoanHandler{Svc: svc, AuditLogger: logger}
}

type CreateLoanRequest struct {
	UserID  string `json:"userId"`
	BookID  string `json:"bookId"`
	DueDate string `json:"dueDate"`
}

// GET /api/loans/user/{userId}
func (h *LoanHandler) GetLoansForUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	loans, err := h.Svc.LoansForUser(r.Context(), userID)
	if err != nil {
		utils.JSONError(w, "Failed to get loans", http.StatusInternalServerError)
		return
	}
	if loans == nil {
		loans = []models.LoanView{}
	}

	json.NewEncoder(w).Encode(loans)
}

// GET /api/admin/loans
func (h *LoanHandler) GetAdminLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Svc.AllLoans(r.Context())
	if err != nil {
		utils.JSONError(w, "Failed to get loans", http.StatusInternalServerError)
		return
	}
	if loans == nil {
		loans = []models.LoanView{}
	}

	json.NewEncoder(w).Encode(loans)
}

// POST /api/admin/loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	dueDate, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		utils.JSONError(w, "Invalid due date", http.StatusBadRequest)
		return
	}

	view, err := h.Svc.BorrowBook(r.Context(), req.UserID, req.BookID, dueDate)
	if err != nil {
		if errors.Is(err, copypool.ErrNoCopiesAvailable) {
			utils.JSONError(w, "No copies available for this book", http.StatusBadRequest)
			return
		}
		utils.JSONError(w, "Failed to create loan", http.StatusInternalServerError)
		return
	}

	requesterID, _ := middleware.RequesterFromContext(r.Context())
	h.AuditLogger.Log(r.Context(), models.LoanEntity, constants.Borrow, requesterID, view.Loan)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(view)
}

// POST /api/admin/loans/{id}/return
func (h *LoanHandler) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["id"]

	if err := h.Svc.ReturnBook(r.Context(), loanID); err != nil {
		switch {
		case errors.Is(err, ledger.ErrLoanNotFound):
			utils.JSONError(w, "Loan not found", http.StatusNotFound)
		case errors.Is(err, ledger.ErrAlreadyReturned):
			utils.JSONError(w, "Loan already returned", http.StatusBadRequest)
		default:
			utils.JSONError(w, "Failed to return loan", http.StatusInternalServerError)
		}
		return
	}

	requesterID, _ := middleware.RequesterFromContext(r.Context())
	h.AuditLogger.Log(r.Context(), models.LoanEntity, constants.Return, requesterID, loanID)

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/admin/loans/{id}/remind
func (h *LoanHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["id"]

	if err := h.Svc.SendReminder(r.Context(), loanID); err != nil {
		switch {
		case errors.Is(err, ledger.ErrLoanNotFound):
			utils.JSONError(w, "Loan not found", http.StatusNotFound)
		case errors.Is(err, ledger.ErrNotOverdue):
			utils.JSONError(w, "Only overdue loans can receive reminders", http.StatusBadRequest)
		default:
			utils.JSONError(w, "Failed to send reminder", http.StatusInternalServerError)
		}
		return
	}

	requesterID, _ := middleware.RequesterFromContext(r.Context())
	h.AuditLogger.Log(r.Context(), models.LoanEntity, constants.Remind, requesterID, loanID)

	w.WriteHeader(http.StatusNoContent)
}
