package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalancePoint is one day of a reconstructed balance series. Value is rounded
// to 2 decimal places at emission; internal accumulation stays unrounded.
type BalancePoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// SeriesResult is the output of a balance ledger reconstruction.
// MixedCurrency is true when at least one in-scope account reports a
// non-default currency and was therefore excluded from the aggregate.
// Approximate marks the best-effort overview fallback built from current
// balances with zero flow.
type SeriesResult struct {
	Points        []BalancePoint `json:"points"`
	MixedCurrency bool           `json:"mixed_currency"`
	Approximate   bool           `json:"approximate"`
}

// CategoryBalance is one row of the current-balance overview.
type CategoryBalance struct {
	Category AccountCategory `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Accounts int             `json:"accounts"`
}

// OverviewResult is the best-effort current-balance snapshot per category.
type OverviewResult struct {
	Balances      []CategoryBalance `json:"balances"`
	NetWorth      decimal.Decimal   `json:"net_worth"`
	MixedCurrency bool              `json:"mixed_currency"`
	Approximate   bool              `json:"approximate"`
}
