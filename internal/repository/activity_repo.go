package repository

import "context"

// ActivityRepository is the sink completed sessions feed. Rows are keyed by
// (user, type, activity) so replays of the same completion are absorbed here
// rather than by the caller.
type ActivityRepository struct {
	db DBTX
}

func NewActivityRepository(db DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Record(ctx context.Context, userID int64, activityType string, activityID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO activity_log (user_id, activity_type, activity_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, activity_type, activity_id) DO NOTHING
	`, userID, activityType, activityID)
	return err
}

func (r *ActivityRepository) CountForUser(ctx context.Context, userID int64, activityType string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM activity_log
		WHERE user_id = $1 AND activity_type = $2
	`, userID, activityType).Scan(&count)
	return count, err
}
