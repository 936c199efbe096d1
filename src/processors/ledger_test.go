package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/centavo/backend/src/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func acct(id int64, balance, currency string) models.Account {
	bal, _ := decimal.NewFromString(balance)
	return models.Account{
		ID:             id,
		Category:       models.CategoryDepository,
		CurrentBalance: decimal.NullDecimal{Decimal: bal, Valid: true},
		Currency:       currency,
	}
}

func ledgerTx(accountID int64, date time.Time, amount string) models.Transaction {
	amt, _ := decimal.NewFromString(amount)
	return models.Transaction{AccountID: accountID, Date: date, Amount: amt}
}

func TestReconstructSeriesFlatWithoutFlows(t *testing.T) {
	today := day(2025, 6, 15)
	accounts := []models.Account{acct(1, "1234.56", "EUR")}

	res := ReconstructSeries(accounts, nil, day(2025, 6, 1), day(2025, 6, 10), today, "EUR")

	require.Len(t, res.Points, 10)
	for _, p := range res.Points {
		assert.True(t, p.Value.Equal(decimal.RequireFromString("1234.56")), "day %s", p.Date)
	}
	assert.False(t, res.MixedCurrency)
}

func TestReconstructSeriesMaturedFlowStepsUp(t *testing.T) {
	today := day(2025, 6, 15)
	start := today.AddDate(0, 0, -5)
	flowDay := today.AddDate(0, 0, -2)
	accounts := []models.Account{acct(1, "1000.00", "EUR")}
	txs := []models.Transaction{ledgerTx(1, flowDay, "50.00")}

	res := ReconstructSeries(accounts, txs, start, today, today, "EUR")

	require.Len(t, res.Points, 6)
	byDay := map[string]decimal.Decimal{}
	for _, p := range res.Points {
		byDay[p.Date.Format("2006-01-02")] = p.Value
	}
	// Baseline at start is the current balance rolled back past the +50 flow.
	assert.True(t, byDay[start.Format("2006-01-02")].Equal(decimal.RequireFromString("950.00")))
	before := byDay[flowDay.AddDate(0, 0, -1).Format("2006-01-02")]
	at := byDay[flowDay.Format("2006-01-02")]
	assert.True(t, at.Sub(before).Equal(decimal.RequireFromString("50.00")))
	assert.True(t, byDay[today.Format("2006-01-02")].Equal(decimal.RequireFromString("1000.00")))
}

func TestReconstructSeriesForwardFillBeyondToday(t *testing.T) {
	today := day(2025, 6, 15)
	accounts := []models.Account{acct(1, "500.00", "EUR")}
	// A stray future-dated transaction must never accrue.
	txs := []models.Transaction{ledgerTx(1, today.AddDate(0, 0, 3), "100.00")}

	res := ReconstructSeries(accounts, txs, today.AddDate(0, 0, -1), today.AddDate(0, 0, 5), today, "EUR")

	require.Len(t, res.Points, 7)
	for _, p := range res.Points {
		assert.True(t, p.Value.Equal(decimal.RequireFromString("500.00")), "day %s", p.Date)
	}
}

func TestReconstructSeriesMixedCurrencyExclusion(t *testing.T) {
	today := day(2025, 6, 15)
	accounts := []models.Account{
		acct(1, "100.00", "EUR"),
		acct(2, "9999.00", "USD"),
	}
	txs := []models.Transaction{ledgerTx(2, today.AddDate(0, 0, -1), "-500.00")}

	res := ReconstructSeries(accounts, txs, today.AddDate(0, 0, -3), today, today, "EUR")

	assert.True(t, res.MixedCurrency)
	for _, p := range res.Points {
		assert.True(t, p.Value.Equal(decimal.RequireFromString("100.00")), "day %s", p.Date)
	}
}

func TestReconstructSeriesNullBalanceCountsAsZero(t *testing.T) {
	today := day(2025, 6, 15)
	accounts := []models.Account{{ID: 1, Category: models.CategoryDepository, Currency: "EUR"}}

	res := ReconstructSeries(accounts, nil, today.AddDate(0, 0, -2), today, today, "EUR")

	for _, p := range res.Points {
		assert.True(t, p.Value.IsZero())
	}
}

func TestReconstructSeriesEndBeforeStart(t *testing.T) {
	today := day(2025, 6, 15)

	res := ReconstructSeries([]models.Account{acct(1, "10.00", "EUR")}, nil, today, today.AddDate(0, 0, -1), today, "EUR")

	assert.Empty(t, res.Points)
}

func TestBuildOverviewGroupsByCategory(t *testing.T) {
	accounts := []models.Account{
		acct(1, "100.10", "EUR"),
		acct(2, "200.20", "EUR"),
		{ID: 3, Category: models.CategoryCredit, Currency: "EUR",
			CurrentBalance: decimal.NullDecimal{Decimal: decimal.RequireFromString("-50.00"), Valid: true}},
		acct(4, "777.00", "GBP"),
	}

	res := BuildOverview(accounts, "EUR")

	assert.True(t, res.Approximate)
	assert.True(t, res.MixedCurrency)
	assert.True(t, res.NetWorth.Equal(decimal.RequireFromString("250.30")))
	require.Len(t, res.Balances, 2)
	assert.Equal(t, models.CategoryDepository, res.Balances[0].Category)
	assert.True(t, res.Balances[0].Total.Equal(decimal.RequireFromString("300.30")))
	assert.Equal(t, 2, res.Balances[0].Accounts)
}
