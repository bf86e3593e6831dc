package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/repository"
	"github.com/shopspring/decimal"
)

// CatalogItem is a purchasable package with its projected return.
type CatalogItem struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	InvestedAmount domain.Amount   `json:"invested_amount"`
	TermDays       int             `json:"term_days"`
	PayoutMode     string          `json:"payout_mode"`
	DailyYield     domain.Amount   `json:"daily_yield,omitempty"`
	FinalPayout    domain.Amount   `json:"final_payout,omitempty"`
	ExpectedReturn domain.Amount   `json:"expected_return"`
	ReturnPercent  decimal.Decimal `json:"return_percent"`
}

type CatalogService struct {
	store QueryStore
}

func NewCatalogService(store QueryStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) List(ctx context.Context) ([]CatalogItem, error) {
	rows, err := s.store.Queries().ListCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	out := make([]CatalogItem, 0, len(rows))
	for _, c := range rows {
		out = append(out, catalogItem(c))
	}
	return out, nil
}

func catalogItem(c repository.PackageCatalog) CatalogItem {
	// Progress at the maturity instant gives the full-term projection.
	p := domain.Progress(catalogTerms(c, time.Time{}), time.Time{}.AddDate(0, 0, int(c.TermDays)))
	return CatalogItem{
		ID:             c.ID,
		Name:           c.Name,
		InvestedAmount: domain.Amount(c.InvestedAmount),
		TermDays:       int(c.TermDays),
		PayoutMode:     c.PayoutMode,
		DailyYield:     domain.Amount(c.DailyYield),
		FinalPayout:    domain.Amount(c.FinalPayout),
		ExpectedReturn: p.ExpectedReturn,
		ReturnPercent:  p.ReturnPercent,
	}
}

func catalogTerms(c repository.PackageCatalog, purchasedAt time.Time) domain.PackageTerms {
	return domain.PackageTerms{
		InvestedAmount: domain.Amount(c.InvestedAmount),
		TermDays:       int(c.TermDays),
		PayoutMode:     c.PayoutMode,
		DailyYield:     domain.Amount(c.DailyYield),
		FinalPayout:    domain.Amount(c.FinalPayout),
		PurchasedAt:    purchasedAt,
	}
}
