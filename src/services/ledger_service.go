// backend/src/services/ledger_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/username/centavo/backend/src/logger"
	"github.com/username/centavo/backend/src/models"
	"github.com/username/centavo/backend/src/processors"
	"github.com/username/centavo/backend/src/utils"
)

type ledgerServiceImpl struct {
	store           Store
	cache           AnalyticsCache
	defaultCurrency string
}

func NewLedgerService(store Store, cache AnalyticsCache, defaultCurrency string) LedgerService {
	return &ledgerServiceImpl{store: store, cache: cache, defaultCurrency: defaultCurrency}
}

// GetNetWorthSeries reconstructs the daily aggregate balance series for the
// query's account and category selection. Results are cached per user, date
// range and filter set, with the entry's lifetime bound to the caller's
// session.
func (s *ledgerServiceImpl) GetNetWorthSeries(ctx context.Context, q SeriesQuery) (*models.SeriesResult, error) {
	log := logger.FromContext(ctx)

	if q.EndDate.Before(q.StartDate) {
		return nil, fmt.Errorf("%w: end date is before start date", ErrValidation)
	}

	baseKey := fmt.Sprintf(ckNetWorthSeries, q.UserID,
		utils.FormatDay(q.StartDate), utils.FormatDay(q.EndDate))
	cacheKey := FilteredCacheKey(baseKey, q.AccountIDs)
	if raw, ok := s.cache.Get(ctx, cacheKey); ok {
		var cached models.SeriesResult
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			log.Debug("Net worth series served from cache", "key", cacheKey)
			return &cached, nil
		}
		log.Warn("Discarding undecodable cache entry", "key", cacheKey)
	}

	accounts, err := s.store.GetAccountsForUser(q.UserID, q.AccountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	// An explicit filter naming an account the query could not resolve means
	// the id is foreign or gone; refusing beats silently computing a partial
	// answer.
	if len(q.AccountIDs) > 0 && len(accounts) != len(q.AccountIDs) {
		return nil, fmt.Errorf("%w: account filter contains unknown account ids", ErrValidation)
	}

	accounts = filterByCategory(accounts, q.Categories)

	ids := make([]int64, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}

	// Snapshot today once so the forward-fill boundary is stable for the
	// whole computation.
	today := utils.DayOf(time.Now().UTC())
	txs, err := s.store.GetTransactionsForAccounts(ids, utils.DayOf(q.StartDate), today)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	result := processors.ReconstructSeries(accounts, txs, q.StartDate, q.EndDate, today, s.defaultCurrency)

	if encoded, err := json.Marshal(result); err == nil {
		s.cache.SetForSession(ctx, cacheKey, string(encoded), q.SessionToken)
	}
	return &result, nil
}

// GetOverview returns the approximate per-category snapshot built from
// current balances alone.
func (s *ledgerServiceImpl) GetOverview(ctx context.Context, userID int64, sessionToken string) (*models.OverviewResult, error) {
	cacheKey := fmt.Sprintf(ckOverview, userID)
	if raw, ok := s.cache.Get(ctx, cacheKey); ok {
		var cached models.OverviewResult
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached, nil
		}
	}

	accounts, err := s.store.GetAccountsForUser(userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	result := processors.BuildOverview(accounts, s.defaultCurrency)

	if encoded, err := json.Marshal(result); err == nil {
		s.cache.SetForSession(ctx, cacheKey, string(encoded), sessionToken)
	}
	return &result, nil
}

// filterByCategory keeps accounts in the requested categories, defaulting to
// the cash-bearing set when none were requested.
func filterByCategory(accounts []models.Account, categories []models.AccountCategory) []models.Account {
	if len(categories) == 0 {
		categories = models.CashBearingCategories
	}
	wanted := make(map[models.AccountCategory]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	kept := make([]models.Account, 0, len(accounts))
	for _, a := range accounts {
		if wanted[a.Category] {
			kept = append(kept, a)
		}
	}
	return kept
}
