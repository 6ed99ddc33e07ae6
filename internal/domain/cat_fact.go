package domain

import "time"

// CatFactSubscription records a user's opt-in to the daily fact email.
type CatFactSubscription struct {
	ID            int64
	UserID        int64
	IsActive      bool
	PreferredTime string
	Timezone      string
	LastSentAt    *time.Time
	TotalSent     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
