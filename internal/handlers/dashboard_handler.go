package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gitKheang/library-management-system/internal/circulation"
	"github.com/gitKheang/library-management-system/internal/models"
	"github.com/gitKheang/library-management-system/internal/utils"
)

type DashboardHandler struct {
	Svc *circulation.Service
}

// GET /api/admin/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Dashboard(r.Context())
	if err != nil {
		utils.JSONError(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}
	if stats.RecentLoans == nil {
		stats.RecentLoans = []models.LoanView{}
	}

	json.NewEncoder(w).Encode(stats)
}
