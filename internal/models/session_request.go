package models

import "time"

// Session request lifecycle statuses. Completed, rejected and cancelled are
// terminal; completed requests stay writable only for per-party ratings.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

type SessionRequest struct {
	ID          int64   `json:"id"`
	RequesterID int64   `json:"requester_id"`
	TutorID     int64   `json:"tutor_id"`
	Subject     string  `json:"subject"`
	Topic       *string `json:"topic"`
	Message     *string `json:"message"`
	Status      string  `json:"status"`
	CoinType    string  `json:"coin_type"`

	StartedAt       *time.Time `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	DurationMinutes *int       `json:"duration_minutes"`

	// Settlement results, written exactly once at completion.
	CoinsSpent    *int     `json:"coins_spent"`
	CoinsCredited *float64 `json:"coins_credited"`
	CoinTypeUsed  *string  `json:"coin_type_used"`

	RatingByRequester   *int       `json:"rating_by_requester"`
	FeedbackByRequester *string    `json:"feedback_by_requester"`
	RatedByRequesterAt  *time.Time `json:"rated_by_requester_at"`
	RatingByTutor       *int       `json:"rating_by_tutor"`
	FeedbackByTutor     *string    `json:"feedback_by_tutor"`
	RatedByTutorAt      *time.Time `json:"rated_by_tutor_at"`

	// Legacy mirror of the requester's rating, kept for older clients.
	Rating     *int    `json:"rating"`
	ReviewText *string `json:"review_text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsParticipant reports whether the user is either side of the request.
func (r *SessionRequest) IsParticipant(userID int64) bool {
	return r.RequesterID == userID || r.TutorID == userID
}

// CounterpartyOf returns the other participant's id.
func (r *SessionRequest) CounterpartyOf(userID int64) int64 {
	if userID == r.RequesterID {
		return r.TutorID
	}
	return r.RequesterID
}

// SessionRequestDetail bundles a request with both parties' public profiles.
type SessionRequestDetail struct {
	SessionRequest
	Requester *PublicProfile `json:"requester,omitempty"`
	Tutor     *PublicProfile `json:"tutor,omitempty"`
}

// JoinCheck is the result of the read-only balance-sufficiency guard.
type JoinCheck struct {
	CoinType         string  `json:"coin_type"`
	AvailableBalance float64 `json:"available_balance"`
	MinRequired      float64 `json:"min_required"`
	HasEnough        bool    `json:"has_enough"`
}
