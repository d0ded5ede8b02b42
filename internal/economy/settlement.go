package economy

import (
	"math"
	"time"
)

// Settlement is the outcome of completing a session: the derived duration and
// the coin amounts to move between the two balances. Applying it to the
// ledger is the caller's job.
type Settlement struct {
	StartedAt       time.Time
	EndedAt         time.Time
	DurationMinutes int
	CoinsSpent      int
	CoinsEarned     float64
	CoinType        string
}

// DeriveDuration resolves the session duration in whole minutes, always >= 1.
// Priority: a finite positive client-supplied hint wins; otherwise the
// startedAt..now delta; otherwise a one-minute session is assumed for
// historically malformed records. The returned start time backfills a missing
// startedAt so the audit trail stays consistent with the duration.
func DeriveDuration(startedAt *time.Time, now time.Time, clientMinutes *float64) (int, time.Time) {
	if clientMinutes != nil && !math.IsNaN(*clientMinutes) && !math.IsInf(*clientMinutes, 0) && *clientMinutes > 0 {
		minutes := int(math.Floor(*clientMinutes))
		if minutes < 1 {
			minutes = 1
		}
		start := now.Add(-time.Duration(minutes) * time.Minute)
		if startedAt != nil {
			start = *startedAt
		}
		return minutes, start
	}

	if startedAt != nil {
		minutes := int(math.Floor(now.Sub(*startedAt).Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		return minutes, *startedAt
	}

	return 1, now.Add(-time.Minute)
}

// Settle computes the coin movement for a session of the given duration.
// CoinsEarned is rounded once here, to 2 decimals; readers must not re-round.
func (t RateTable) Settle(coinType string, startedAt time.Time, endedAt time.Time, durationMinutes int) Settlement {
	rate := t.Rate(coinType)
	spent := durationMinutes * rate.SpendPerMinute
	earned := math.Round(float64(spent)*rate.EarnMultiplier*100) / 100

	return Settlement{
		StartedAt:       startedAt,
		EndedAt:         endedAt,
		DurationMinutes: durationMinutes,
		CoinsSpent:      spent,
		CoinsEarned:     earned,
		CoinType:        coinType,
	}
}
