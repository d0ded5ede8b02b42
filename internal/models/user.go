package models

import "time"

// Coin types are independent currencies; balances are not fungible across types.
const (
	CoinSilver = "silver"
	CoinGold   = "gold"
	CoinBronze = "bronze"
)

func ValidCoinType(coinType string) bool {
	switch coinType {
	case CoinSilver, CoinGold, CoinBronze:
		return true
	default:
		return false
	}
}

type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	FullName       *string   `json:"full_name"`
	Bio            *string   `json:"bio"`
	TutorAvailable bool      `json:"tutor_available"`
	SilverCoins    float64   `json:"silver_coins"`
	GoldCoins      float64   `json:"gold_coins"`
	BronzeCoins    float64   `json:"bronze_coins"`
	RatingAverage  float64   `json:"rating_average"`
	RatingCount    int       `json:"rating_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CoinBalance returns the balance for the given coin type.
func (u *User) CoinBalance(coinType string) float64 {
	switch coinType {
	case CoinGold:
		return u.GoldCoins
	case CoinBronze:
		return u.BronzeCoins
	default:
		return u.SilverCoins
	}
}

// PublicProfile is the subset of a user safe to show to other users.
type PublicProfile struct {
	ID             int64   `json:"id"`
	FullName       *string `json:"full_name"`
	Bio            *string `json:"bio"`
	TutorAvailable bool    `json:"tutor_available"`
	RatingAverage  float64 `json:"rating_average"`
	RatingCount    int     `json:"rating_count"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		FullName:       u.FullName,
		Bio:            u.Bio,
		TutorAvailable: u.TutorAvailable,
		RatingAverage:  u.RatingAverage,
		RatingCount:    u.RatingCount,
	}
}
