package models

import "time"

// SkillMate connection statuses.
const (
	MatePending  = "pending"
	MateAccepted = "accepted"
	MateRejected = "rejected"
)

type SkillMate struct {
	ID          int64     `json:"id"`
	RequesterID int64     `json:"requester_id"`
	AddresseeID int64     `json:"addressee_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SkillMateDetail struct {
	SkillMate
	Requester *PublicProfile `json:"requester,omitempty"`
	Addressee *PublicProfile `json:"addressee,omitempty"`
}
