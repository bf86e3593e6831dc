package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		name string
		days int
		term int
		want int
	}{
		{name: "day_zero", days: 0, term: 90, want: 0},
		{name: "negative_days", days: -3, term: 90, want: 0},
		{name: "one_third", days: 30, term: 90, want: 33},
		{name: "rounds_half_up", days: 1, term: 8, want: 13},
		{name: "at_term", days: 90, term: 90, want: 100},
		{name: "past_term", days: 400, term: 90, want: 100},
		{name: "zero_term", days: 0, term: 0, want: 100},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ProgressPercent(tc.days, tc.term))
		})
	}
}

func TestDaysElapsed(t *testing.T) {
	start := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysElapsed(start, start))
	assert.Equal(t, 0, DaysElapsed(start, start.Add(23*time.Hour+59*time.Minute)))
	assert.Equal(t, 1, DaysElapsed(start, start.Add(24*time.Hour)))
	assert.Equal(t, 0, DaysElapsed(start, start.Add(-48*time.Hour)))
}

func TestProgressDailyPackage(t *testing.T) {
	purchased := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	terms := PackageTerms{
		InvestedAmount: 50_000,
		TermDays:       90,
		PayoutMode:     PayoutModeDaily,
		DailyYield:     800,
		PurchasedAt:    purchased,
	}

	p := Progress(terms, purchased.Add(10*Day))
	assert.Equal(t, 10, p.DaysElapsed)
	assert.Equal(t, 80, p.DaysRemaining)
	assert.Equal(t, PackageStatusActive, p.Status)
	assert.False(t, p.Finalized)
	assert.Equal(t, Amount(8_000), p.AccruedToDate)
	assert.Equal(t, Amount(72_000), p.ExpectedReturn)
	assert.Equal(t, "144", p.ReturnPercent.String())

	done := Progress(terms, purchased.Add(120*Day))
	assert.True(t, done.Finalized)
	assert.Equal(t, PackageStatusFinalized, done.Status)
	assert.Equal(t, 100, done.ProgressPercent)
	assert.Equal(t, 0, done.DaysRemaining)
	assert.Equal(t, Amount(72_000), done.AccruedToDate)
}

func TestProgressLumpSumPackage(t *testing.T) {
	purchased := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	terms := PackageTerms{
		InvestedAmount: 100_000,
		TermDays:       30,
		PayoutMode:     PayoutModeLumpSum,
		FinalPayout:    130_000,
		PurchasedAt:    purchased,
	}

	mid := Progress(terms, purchased.Add(29*Day))
	require.False(t, mid.Finalized)
	assert.Equal(t, Amount(0), mid.AccruedToDate)
	assert.Equal(t, Amount(130_000), mid.ExpectedReturn)

	end := Progress(terms, purchased.Add(30*Day))
	require.True(t, end.Finalized)
	assert.Equal(t, Amount(130_000), end.AccruedToDate)
}
