package models

import "time"

// Transaction types
const (
	TypeIncome  = "Income"
	TypeExpense = "Expense"
)

// Transaction represents a financial transaction
type Transaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidType reports whether t is one of the allowed transaction types
func ValidType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}
