package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Day is the accrual period used for package progress.
const Day = 24 * time.Hour

// DaysElapsed returns the number of whole days between start and now.
// A start in the future yields zero.
func DaysElapsed(start, now time.Time) int {
	if !now.After(start) {
		return 0
	}
	return int(now.Sub(start) / Day)
}

// ProgressPercent returns min(100, round(100*days/term)).
// Rounding is half away from zero. A non-positive term is treated as complete.
func ProgressPercent(days, term int) int {
	if term <= 0 {
		return 100
	}
	if days <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(days) * 100).
		Div(decimal.NewFromInt(int64(term))).
		Round(0).
		IntPart()
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// PackageTerms are the catalog-derived parameters of a purchased package.
type PackageTerms struct {
	InvestedAmount Amount
	TermDays       int
	PayoutMode     string
	DailyYield     Amount
	FinalPayout    Amount
	PurchasedAt    time.Time
}

// PackageProgress is the derived, never-stored view of a package at a point in time.
type PackageProgress struct {
	DaysElapsed     int             `json:"days_elapsed"`
	DaysRemaining   int             `json:"days_remaining"`
	ProgressPercent int             `json:"progress_percent"`
	Status          string          `json:"status"`
	Finalized       bool            `json:"finalized"`
	AccruedToDate   Amount          `json:"accrued_to_date"`
	ExpectedReturn  Amount          `json:"expected_return"`
	ReturnPercent   decimal.Decimal `json:"return_percent"`
	MaturesAt       time.Time       `json:"matures_at"`
}

// Progress evaluates a package at now. Daily-yield packages report what has accrued so far;
// lump-sum packages report nothing until the term is reached. Nothing here credits balances.
func Progress(p PackageTerms, now time.Time) PackageProgress {
	days := DaysElapsed(p.PurchasedAt, now)
	capped := days
	if capped > p.TermDays {
		capped = p.TermDays
	}

	out := PackageProgress{
		DaysElapsed:     days,
		DaysRemaining:   p.TermDays - capped,
		ProgressPercent: ProgressPercent(days, p.TermDays),
		Status:          PackageStatusActive,
		MaturesAt:       p.PurchasedAt.Add(time.Duration(p.TermDays) * Day),
	}
	if days >= p.TermDays {
		out.Status = PackageStatusFinalized
		out.Finalized = true
	}

	switch p.PayoutMode {
	case PayoutModeLumpSum:
		out.ExpectedReturn = p.FinalPayout
		if out.Finalized {
			out.AccruedToDate = p.FinalPayout
		}
	default:
		out.ExpectedReturn = p.DailyYield * Amount(p.TermDays)
		out.AccruedToDate = p.DailyYield * Amount(capped)
	}
	out.ReturnPercent = out.ExpectedReturn.Percent(p.InvestedAmount)
	return out
}
