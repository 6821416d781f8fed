package models

// MonthlyStat represents income and expense totals for a single month.
// Expense totals are negative-signed.
type MonthlyStat struct {
	Month   string  `json:"month"` // Format: YYYY-MM
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// YearlyStat represents income and expense totals for a single year
type YearlyStat struct {
	Year    int     `json:"year"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// TrendRow is a pivoted aggregation row: a time-bucket key ("month" or
// "year") plus one key per category holding its signed total.
type TrendRow map[string]interface{}
