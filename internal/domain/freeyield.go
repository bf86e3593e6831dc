package domain

import "time"

// CalendarDay returns the date of t as observed in loc, expressed as midnight UTC so that it
// round-trips through a Postgres DATE column unchanged.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from one CalendarDay value to another.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Round(time.Hour).Hours() / 24)
}

// ClaimStatus is the outcome of checking a free-yield claim.
type ClaimStatus int

const (
	ClaimEligible ClaimStatus = iota
	ClaimInactive
	ClaimExpired
	ClaimAlreadyToday
)

// FreeYieldState mirrors the trial columns stored on the account.
type FreeYieldState struct {
	Active      bool
	StartedOn   *time.Time
	LastClaimOn *time.Time
	Accrued     Amount
}

// FreeYieldStatus is the derived view returned to clients.
type FreeYieldStatus struct {
	Active        bool       `json:"active"`
	StartedOn     *time.Time `json:"started_on,omitempty"`
	LastClaimOn   *time.Time `json:"last_claim_on,omitempty"`
	Accrued       Amount     `json:"accrued"`
	DaysElapsed   int        `json:"days_elapsed"`
	DaysRemaining int        `json:"days_remaining"`
	Expired       bool       `json:"expired"`
	ClaimedToday  bool       `json:"claimed_today"`
	CanClaim      bool       `json:"can_claim"`
}

// CheckClaim decides whether a claim made on today is allowed. The claim window is
// [0, term) days after the start date, and at most one claim per calendar day.
func (s FreeYieldState) CheckClaim(today time.Time, term int) ClaimStatus {
	if !s.Active || s.StartedOn == nil {
		return ClaimInactive
	}
	if DaysBetween(*s.StartedOn, today) >= term {
		return ClaimExpired
	}
	if s.LastClaimOn != nil && s.LastClaimOn.Equal(today) {
		return ClaimAlreadyToday
	}
	return ClaimEligible
}

// Status evaluates the trial on today.
func (s FreeYieldState) Status(today time.Time, term int) FreeYieldStatus {
	out := FreeYieldStatus{
		Active:      s.Active,
		StartedOn:   s.StartedOn,
		LastClaimOn: s.LastClaimOn,
		Accrued:     s.Accrued,
	}
	if s.StartedOn != nil {
		days := DaysBetween(*s.StartedOn, today)
		if days < 0 {
			days = 0
		}
		out.DaysElapsed = days
		out.DaysRemaining = max(term-days, 0)
		out.Expired = days >= term
	}
	out.ClaimedToday = s.LastClaimOn != nil && s.LastClaimOn.Equal(today)
	out.CanClaim = s.CheckClaim(today, term) == ClaimEligible
	return out
}
