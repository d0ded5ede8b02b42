package repository

import (
	"context"
	"fmt"

	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/models"
)

const userColumns = `id, email, password_hash, full_name, bio, tutor_available,
		silver_coins, gold_coins, bronze_coins, rating_average, rating_count,
		created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// coinColumn whitelists the balance column for a coin type. Unknown types
// fall back to silver, matching the historical default.
func coinColumn(coinType string) string {
	switch coinType {
	case models.CoinGold:
		return "gold_coins"
	case models.CoinBronze:
		return "bronze_coins"
	default:
		return "silver_coins"
	}
}

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Bio,
		&user.TutorAvailable,
		&user.SilverCoins,
		&user.GoldCoins,
		&user.BronzeCoins,
		&user.RatingAverage,
		&user.RatingCount,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, full_name, silver_coins, gold_coins, bronze_coins)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, tutor_available, rating_average, rating_count, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.SilverCoins,
		user.GoldCoins,
		user.BronzeCoins,
	).Scan(
		&user.ID,
		&user.TutorAvailable,
		&user.RatingAverage,
		&user.RatingCount,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) SetTutorAvailable(ctx context.Context, userID int64, available bool) (*models.User, error) {
	query := fmt.Sprintf(`
		UPDATE users
		SET tutor_available = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, userColumns)
	return scanUser(r.db.QueryRow(ctx, query, userID, available))
}

// TryDebit decrements the coin-type balance only if it stays non-negative.
// A false return means insufficient funds; the balance is left untouched.
func (r *UserRepository) TryDebit(ctx context.Context, userID int64, coinType string, amount float64) (bool, error) {
	if amount <= 0 {
		return true, nil
	}

	column := coinColumn(coinType)
	query := fmt.Sprintf(`
		UPDATE users
		SET %[1]s = %[1]s - $2, updated_at = NOW()
		WHERE id = $1 AND %[1]s >= $2
	`, column)

	tag, err := r.db.Exec(ctx, query, userID, amount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Credit unconditionally increments the coin-type balance. Earnings are never
// blocked by a precondition.
func (r *UserRepository) Credit(ctx context.Context, userID int64, coinType string, amount float64) error {
	if amount <= 0 {
		return nil
	}

	column := coinColumn(coinType)
	query := fmt.Sprintf(`
		UPDATE users
		SET %[1]s = %[1]s + $2, updated_at = NOW()
		WHERE id = $1
	`, column)

	_, err := r.db.Exec(ctx, query, userID, amount)
	return err
}

// ApplyRating folds one new 1-5 rating into the user's running average. The
// whole read-modify-write happens in a single statement so concurrent ratings
// cannot lose updates.
func (r *UserRepository) ApplyRating(ctx context.Context, userID int64, rating int) error {
	query := `
		UPDATE users
		SET rating_average = ROUND((rating_average * rating_count + $2) / (rating_count + 1), 2),
		    rating_count = rating_count + 1,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, userID, rating)
	return err
}
