package repository

import (
	"context"

	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/models"
)

const skillMateColumns = `id, requester_id, addressee_id, status, created_at, updated_at`

type SkillMateRepository struct {
	db DBTX
}

func NewSkillMateRepository(db DBTX) *SkillMateRepository {
	return &SkillMateRepository{db: db}
}

func scanSkillMate(row interface{ Scan(dest ...any) error }) (*models.SkillMate, error) {
	var mate models.SkillMate
	err := row.Scan(
		&mate.ID,
		&mate.RequesterID,
		&mate.AddresseeID,
		&mate.Status,
		&mate.CreatedAt,
		&mate.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &mate, nil
}

func (r *SkillMateRepository) Create(ctx context.Context, requesterID, addresseeID int64) (*models.SkillMate, error) {
	query := `
		INSERT INTO skillmates (requester_id, addressee_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING ` + skillMateColumns

	return scanSkillMate(r.db.QueryRow(ctx, query, requesterID, addresseeID))
}

func (r *SkillMateRepository) GetByID(ctx context.Context, id int64) (*models.SkillMate, error) {
	query := `SELECT ` + skillMateColumns + ` FROM skillmates WHERE id = $1`
	return scanSkillMate(r.db.QueryRow(ctx, query, id))
}

// ExistsBetween reports whether the pair already has a pending or accepted
// connection in either direction.
func (r *SkillMateRepository) ExistsBetween(ctx context.Context, a, b int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM skillmates
			WHERE ((requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1))
			  AND status IN ('pending', 'accepted')
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, a, b).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Resolve moves a pending connection to accepted or rejected; only the
// addressee's pending rows match, so a second resolve finds no row.
func (r *SkillMateRepository) Resolve(ctx context.Context, id, addresseeID int64, status string) (*models.SkillMate, error) {
	query := `
		UPDATE skillmates
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND addressee_id = $2 AND status = 'pending'
		RETURNING ` + skillMateColumns

	return scanSkillMate(r.db.QueryRow(ctx, query, id, addresseeID, status))
}

func (r *SkillMateRepository) ListForUser(ctx context.Context, userID int64, status string) ([]models.SkillMate, error) {
	query := `
		SELECT ` + skillMateColumns + `
		FROM skillmates
		WHERE (requester_id = $1 OR addressee_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY updated_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, userID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mates := make([]models.SkillMate, 0)
	for rows.Next() {
		mate, err := scanSkillMate(rows)
		if err != nil {
			return nil, err
		}
		mates = append(mates, *mate)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return mates, nil
}

// ListIncoming returns pending requests waiting on the user.
func (r *SkillMateRepository) ListIncoming(ctx context.Context, userID int64) ([]models.SkillMate, error) {
	query := `
		SELECT ` + skillMateColumns + `
		FROM skillmates
		WHERE addressee_id = $1 AND status = 'pending'
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mates := make([]models.SkillMate, 0)
	for rows.Next() {
		mate, err := scanSkillMate(rows)
		if err != nil {
			return nil, err
		}
		mates = append(mates, *mate)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return mates, nil
}
