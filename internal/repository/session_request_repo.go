package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/models"
)

const sessionRequestColumns = `id, requester_id, tutor_id, subject, topic, message, status, coin_type,
		started_at, ended_at, duration_minutes, coins_spent, coins_credited, coin_type_used,
		rating_by_requester, feedback_by_requester, rated_by_requester_at,
		rating_by_tutor, feedback_by_tutor, rated_by_tutor_at,
		rating, review_text, created_at, updated_at`

type CreateSessionRequestInput struct {
	RequesterID int64
	TutorID     int64
	Subject     string
	Topic       *string
	Message     *string
	CoinType    string
}

type SessionRequestListFilter struct {
	// Side narrows to requests the user made ("learning") or received
	// ("teaching"); empty means both.
	Side   string
	Status string
}

type SessionRequestRepository struct {
	db DBTX
}

func NewSessionRequestRepository(db DBTX) *SessionRequestRepository {
	return &SessionRequestRepository{db: db}
}

func scanSessionRequest(row interface{ Scan(dest ...any) error }) (*models.SessionRequest, error) {
	var req models.SessionRequest
	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.TutorID,
		&req.Subject,
		&req.Topic,
		&req.Message,
		&req.Status,
		&req.CoinType,
		&req.StartedAt,
		&req.EndedAt,
		&req.DurationMinutes,
		&req.CoinsSpent,
		&req.CoinsCredited,
		&req.CoinTypeUsed,
		&req.RatingByRequester,
		&req.FeedbackByRequester,
		&req.RatedByRequesterAt,
		&req.RatingByTutor,
		&req.FeedbackByTutor,
		&req.RatedByTutorAt,
		&req.Rating,
		&req.ReviewText,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *SessionRequestRepository) Create(ctx context.Context, input CreateSessionRequestInput) (*models.SessionRequest, error) {
	query := fmt.Sprintf(`
		INSERT INTO session_requests (requester_id, tutor_id, subject, topic, message, status, coin_type)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6)
		RETURNING %s
	`, sessionRequestColumns)

	return scanSessionRequest(r.db.QueryRow(
		ctx,
		query,
		input.RequesterID,
		input.TutorID,
		input.Subject,
		input.Topic,
		input.Message,
		input.CoinType,
	))
}

func (r *SessionRequestRepository) GetByID(ctx context.Context, id int64) (*models.SessionRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM session_requests WHERE id = $1`, sessionRequestColumns)
	return scanSessionRequest(r.db.QueryRow(ctx, query, id))
}

// HasPendingBetween reports whether this requester already has a pending
// request toward this tutor. The check is directional, matching the partial
// unique index: the tutor may still have their own pending request the other
// way.
func (r *SessionRequestRepository) HasPendingBetween(ctx context.Context, requesterID, tutorID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM session_requests
			WHERE requester_id = $1 AND tutor_id = $2 AND status = 'pending'
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, requesterID, tutorID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *SessionRequestRepository) ListForUser(ctx context.Context, userID int64, filter SessionRequestListFilter) ([]models.SessionRequest, error) {
	args := []any{userID}
	var where string
	switch filter.Side {
	case "learning":
		where = "requester_id = $1"
	case "teaching":
		where = "tutor_id = $1"
	default:
		where = "(requester_id = $1 OR tutor_id = $1)"
	}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM session_requests
		WHERE %s
		ORDER BY created_at DESC, id DESC
	`, sessionRequestColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.SessionRequest, 0)
	for rows.Next() {
		req, err := scanSessionRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

// UpdateStatusIfCurrent flips the status only when the stored status still
// matches; pgx.ErrNoRows signals a lost race or an illegal transition.
func (r *SessionRequestRepository) UpdateStatusIfCurrent(ctx context.Context, id int64, currentStatus, nextStatus string) (*models.SessionRequest, error) {
	query := fmt.Sprintf(`
		UPDATE session_requests
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionRequestColumns)

	return scanSessionRequest(r.db.QueryRow(ctx, query, id, currentStatus, nextStatus))
}

// StartIfApproved is the approved -> active flip; it stamps started_at in the
// same statement.
func (r *SessionRequestRepository) StartIfApproved(ctx context.Context, id int64) (*models.SessionRequest, error) {
	query := fmt.Sprintf(`
		UPDATE session_requests
		SET status = 'active', started_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'approved'
		RETURNING %s
	`, sessionRequestColumns)

	return scanSessionRequest(r.db.QueryRow(ctx, query, id))
}

// CancelIfOpen cancels an approved or active session.
func (r *SessionRequestRepository) CancelIfOpen(ctx context.Context, id int64) (*models.SessionRequest, error) {
	query := fmt.Sprintf(`
		UPDATE session_requests
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('approved', 'active')
		RETURNING %s
	`, sessionRequestColumns)

	return scanSessionRequest(r.db.QueryRow(ctx, query, id))
}

// CompleteIfActive is the atomic active -> completed flip. Of N concurrent
// completion calls exactly one gets a row back; the rest see pgx.ErrNoRows
// and must re-read to distinguish "already completed" from a bad state.
func (r *SessionRequestRepository) CompleteIfActive(ctx context.Context, id int64, endedAt time.Time) (*models.SessionRequest, error) {
	query := fmt.Sprintf(`
		UPDATE session_requests
		SET status = 'completed', ended_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING %s
	`, sessionRequestColumns)

	return scanSessionRequest(r.db.QueryRow(ctx, query, id, endedAt))
}

// RecordSettlement persists the derived duration and coin amounts after the
// completion flip succeeded. started_at is written too so a missing start
// time gets backfilled consistently with the duration.
func (r *SessionRequestRepository) RecordSettlement(
	ctx context.Context,
	id int64,
	startedAt time.Time,
	durationMinutes int,
	coinsSpent int,
	coinsCredited float64,
	coinTypeUsed string,
) (*models.SessionRequest, error) {
	query := fmt.Sprintf(`
		UPDATE session_requests
		SET started_at = $2,
		    duration_minutes = $3,
		    coins_spent = $4,
		    coins_credited = $5,
		    coin_type_used = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, sessionRequestColumns)

	return scanSessionRequest(r.db.QueryRow(ctx, query, id, startedAt, durationMinutes, coinsSpent, coinsCredited, coinTypeUsed))
}

// SetRequesterRating writes the requester's one-shot rating. The conditional
// UPDATE enforces both the completed precondition and write-once semantics;
// the legacy rating/review_text mirror is refreshed in the same statement.
func (r *SessionRequestRepository) SetRequesterRating(ctx context.Context, id int64, rating int, feedback *string) (*models.SessionRequest, error) {
	query := fmt.Sprintf(`
		UPDATE session_requests
		SET rating_by_requester = $2,
		    feedback_by_requester = $3,
		    rated_by_requester_at = NOW(),
		    rating = $2,
		    review_text = $3,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'completed' AND rating_by_requester IS NULL
		RETURNING %s
	`, sessionRequestColumns)

	return scanSessionRequest(r.db.QueryRow(ctx, query, id, rating, feedback))
}

// SetTutorRating writes the tutor's one-shot rating.
func (r *SessionRequestRepository) SetTutorRating(ctx context.Context, id int64, rating int, feedback *string) (*models.SessionRequest, error) {
	query := fmt.Sprintf(`
		UPDATE session_requests
		SET rating_by_tutor = $2,
		    feedback_by_tutor = $3,
		    rated_by_tutor_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'completed' AND rating_by_tutor IS NULL
		RETURNING %s
	`, sessionRequestColumns)

	return scanSessionRequest(r.db.QueryRow(ctx, query, id, rating, feedback))
}
