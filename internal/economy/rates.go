// Package economy holds the coin arithmetic for session settlement: duration
// derivation, spend/earn computation and the minimum-balance thresholds. It
// performs no I/O so the math can be tested without a database.
package economy

import "github.com/Ananyachauhan19/Skill-Swap-sub008/internal/models"

// CoinRate is the per-minute price and payout share for one coin type.
type CoinRate struct {
	SpendPerMinute int
	EarnMultiplier float64
}

// MinBalanceRule is the minimum a requester must hold before a session may
// start, expressed as a number of minutes the balance has to cover.
type MinBalanceRule struct {
	MinutesCovered int
	MinRequired    float64
}

// RateTable maps coin types to their business constants. It is passed into
// the session service explicitly so tests can substitute alternate rates.
type RateTable struct {
	Rates       map[string]CoinRate
	MinBalances map[string]MinBalanceRule
}

// DefaultRateTable returns the production rate table.
func DefaultRateTable() RateTable {
	return RateTable{
		Rates: map[string]CoinRate{
			models.CoinSilver: {SpendPerMinute: 1, EarnMultiplier: 0.75},
			models.CoinGold:   {SpendPerMinute: 1, EarnMultiplier: 0.75},
			models.CoinBronze: {SpendPerMinute: 4, EarnMultiplier: 0.75},
		},
		MinBalances: map[string]MinBalanceRule{
			models.CoinSilver: {MinutesCovered: 10, MinRequired: 10},
			models.CoinGold:   {MinutesCovered: 10, MinRequired: 10},
			models.CoinBronze: {MinutesCovered: 10, MinRequired: 40},
		},
	}
}

// NormalizeCoinType maps unset coin types to silver, the historical default.
func NormalizeCoinType(coinType string) string {
	if !models.ValidCoinType(coinType) {
		return models.CoinSilver
	}
	return coinType
}

// Rate returns the rate for the coin type, falling back to silver.
func (t RateTable) Rate(coinType string) CoinRate {
	if rate, ok := t.Rates[coinType]; ok {
		return rate
	}
	return t.Rates[models.CoinSilver]
}

// MinRequired returns the minimum balance needed to start a session paid in
// the given coin type.
func (t RateTable) MinRequired(coinType string) float64 {
	if rule, ok := t.MinBalances[coinType]; ok {
		return rule.MinRequired
	}
	return t.MinBalances[models.CoinSilver].MinRequired
}
