package models

import "time"

// Ticket categories and statuses.
const (
	TicketSupport = "support"
	TicketAbuse   = "abuse"

	TicketOpen     = "open"
	TicketResolved = "resolved"
)

type Ticket struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Category       string    `json:"category"`
	Subject        string    `json:"subject"`
	Message        string    `json:"message"`
	ReportedUserID *int64    `json:"reported_user_id"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
