package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalendarDayUsesLocation(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 02:00 UTC on the 2nd is still the 1st in Bogota (UTC-5).
	instant := time.Date(2026, 5, 2, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), CalendarDay(instant, bogota))
	assert.Equal(t, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), CalendarDay(instant, time.UTC))
}

func TestFreeYieldCheckClaim(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	day := func(n int) time.Time { return start.AddDate(0, 0, n) }
	ptr := func(v time.Time) *time.Time { return &v }

	cases := []struct {
		name  string
		state FreeYieldState
		today time.Time
		want  ClaimStatus
	}{
		{name: "inactive", state: FreeYieldState{}, today: day(0), want: ClaimInactive},
		{name: "first_day", state: FreeYieldState{Active: true, StartedOn: ptr(start)}, today: day(0), want: ClaimEligible},
		{name: "same_day_twice", state: FreeYieldState{Active: true, StartedOn: ptr(start), LastClaimOn: ptr(day(5))}, today: day(5), want: ClaimAlreadyToday},
		{name: "next_day", state: FreeYieldState{Active: true, StartedOn: ptr(start), LastClaimOn: ptr(day(5))}, today: day(6), want: ClaimEligible},
		{name: "last_valid_day", state: FreeYieldState{Active: true, StartedOn: ptr(start)}, today: day(59), want: ClaimEligible},
		{name: "day_sixty_boundary", state: FreeYieldState{Active: true, StartedOn: ptr(start)}, today: day(60), want: ClaimExpired},
		{name: "long_after", state: FreeYieldState{Active: true, StartedOn: ptr(start)}, today: day(200), want: ClaimExpired},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.state.CheckClaim(tc.today, 60))
		})
	}
}

func TestFreeYieldStatus(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	last := start.AddDate(0, 0, 9)
	state := FreeYieldState{Active: true, StartedOn: &start, LastClaimOn: &last, Accrued: 5_000}

	st := state.Status(start.AddDate(0, 0, 9), 60)
	assert.Equal(t, 9, st.DaysElapsed)
	assert.Equal(t, 51, st.DaysRemaining)
	assert.True(t, st.ClaimedToday)
	assert.False(t, st.CanClaim)
	assert.False(t, st.Expired)

	st = state.Status(start.AddDate(0, 0, 60), 60)
	assert.True(t, st.Expired)
	assert.Equal(t, 0, st.DaysRemaining)
	assert.False(t, st.CanClaim)
}
