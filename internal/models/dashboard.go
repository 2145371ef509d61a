package models

// DashboardStats is the admin dashboard aggregate. ActiveLoans and
// OverdueLoans partition the open loans by freshly derived status.
type DashboardStats struct {
	ActiveBooks  int64      `json:"activeBooks"`
	TotalUsers   int64      `json:"totalUsers"`
	ActiveLoans  int        `json:"activeLoans"`
	OverdueLoans int        `json:"overdueLoans"`
	RecentLoans  []LoanView `json:"recentLoans"`
}
