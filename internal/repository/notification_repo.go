package repository

import (
	"context"

	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/models"
)

type CreateNotificationInput struct {
	UserID    int64
	Type      string
	Message   string
	SessionID *int64
	ActorID   *int64
	ActorName *string
}

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (user_id, type, message, session_id, actor_id, actor_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, type, message, session_id, actor_id, actor_name, is_read, created_at
	`

	var n models.Notification
	err := r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.Type,
		input.Message,
		input.SessionID,
		input.ActorID,
		input.ActorName,
	).Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&n.Message,
		&n.SessionID,
		&n.ActorID,
		&n.ActorName,
		&n.IsRead,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, type, message, session_id, actor_id, actor_name, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Message,
			&n.SessionID,
			&n.ActorID,
			&n.ActorName,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

// MarkRead marks a single notification read; scoped to the owner so one user
// cannot clear another's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1 AND user_id = $2 AND is_read = FALSE
	`, notificationID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	return err
}
