// backend/src/processors/ledger.go
package processors

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/centavo/backend/src/models"
	"github.com/username/centavo/backend/src/utils"
)

// ReconstructSeries derives a daily balance series for the supplied accounts
// between start and end inclusive, given only each account's current balance
// and its transaction ledger through today.
//
// The balance at start (the baseline) is each account's current balance minus
// the sum of transaction amounts dated strictly after start up to and
// including today. Walking forward from the baseline, each day accrues that
// day's flows; days beyond today accrue nothing and repeat the last computed
// total (forward-fill). today must be snapshotted once by the caller so the
// forward-fill boundary cannot shift mid-computation.
//
// Accounts in a non-default currency are excluded from the aggregate and flip
// MixedCurrency on the result. Emitted points are rounded to 2 decimal
// places; accumulation stays unrounded.
func ReconstructSeries(accounts []models.Account, txs []models.Transaction, start, end, today time.Time, defaultCurrency string) models.SeriesResult {
	start = utils.DayOf(start)
	end = utils.DayOf(end)
	today = utils.DayOf(today)

	result := models.SeriesResult{Points: []models.BalancePoint{}}
	if end.Before(start) {
		return result
	}

	included := make(map[int64]bool, len(accounts))
	baseline := decimal.Zero
	for _, a := range accounts {
		if a.Currency != "" && a.Currency != defaultCurrency {
			result.MixedCurrency = true
			continue
		}
		included[a.ID] = true
		if a.CurrentBalance.Valid {
			baseline = baseline.Add(a.CurrentBalance.Decimal)
		}
	}

	// Roll the current balances back to start, collecting per-day flows for
	// the forward walk on the way.
	flows := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if !included[tx.AccountID] {
			continue
		}
		day := utils.DayOf(tx.Date)
		if !day.After(start) || day.After(today) {
			continue
		}
		baseline = baseline.Sub(tx.Amount)
		flows[utils.FormatDay(day)] = flows[utils.FormatDay(day)].Add(tx.Amount)
	}

	accrualCutoff := end
	if today.Before(end) {
		accrualCutoff = today
	}

	running := baseline
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !d.After(accrualCutoff) && d.After(start) {
			if flow, ok := flows[utils.FormatDay(d)]; ok {
				running = running.Add(flow)
			}
		}
		result.Points = append(result.Points, models.BalancePoint{
			Date:  d,
			Value: running.Round(2),
		})
	}
	return result
}

// BuildOverview substitutes each account's current balance directly with zero
// flow, grouped by category. It is the best-effort fallback used when no
// reconstructed history is wanted, and is labeled Approximate.
func BuildOverview(accounts []models.Account, defaultCurrency string) models.OverviewResult {
	result := models.OverviewResult{
		Balances:    []models.CategoryBalance{},
		NetWorth:    decimal.Zero,
		Approximate: true,
	}
	totals := make(map[models.AccountCategory]*models.CategoryBalance)
	order := []models.AccountCategory{}
	for _, a := range accounts {
		if a.Currency != "" && a.Currency != defaultCurrency {
			result.MixedCurrency = true
			continue
		}
		cb, ok := totals[a.Category]
		if !ok {
			cb = &models.CategoryBalance{Category: a.Category, Total: decimal.Zero}
			totals[a.Category] = cb
			order = append(order, a.Category)
		}
		cb.Accounts++
		if a.CurrentBalance.Valid {
			cb.Total = cb.Total.Add(a.CurrentBalance.Decimal)
			result.NetWorth = result.NetWorth.Add(a.CurrentBalance.Decimal)
		}
	}
	for _, cat := range order {
		cb := totals[cat]
		cb.Total = cb.Total.Round(2)
		result.Balances = append(result.Balances, *cb)
	}
	result.NetWorth = result.NetWorth.Round(2)
	return result
}
