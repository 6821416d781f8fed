package models

import "time"

// TransactionUpdate carries a partial field set for an update. Nil fields
// are left unchanged.
type TransactionUpdate struct {
	Amount      *float64
	Category    *string
	Type        *string
	Date        *time.Time
	Description *string
}
