// backend/src/services/sync_service.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/username/centavo/backend/src/logger"
	"github.com/username/centavo/backend/src/models"
	"github.com/username/centavo/backend/src/processors"
	"github.com/username/centavo/backend/src/providers"
	"github.com/username/centavo/backend/src/security/validation"
	"github.com/username/centavo/backend/src/utils"
)

type syncServiceImpl struct {
	registry *providers.Registry
	store    Store
	cache    AnalyticsCache

	// locks holds one *sync.Mutex per connection id. Entries are never
	// removed; the set of connections a process syncs is small.
	locks sync.Map
}

func NewSyncService(registry *providers.Registry, store Store, cache AnalyticsCache) SyncService {
	return &syncServiceImpl{registry: registry, store: store, cache: cache}
}

func (s *syncServiceImpl) provider(name string) (providers.Provider, error) {
	p, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderUnavailable, name)
	}
	return p, nil
}

// ownedConnection loads a connection and verifies the caller owns it. A
// foreign connection is indistinguishable from a missing one on purpose.
func (s *syncServiceImpl) ownedConnection(userID, connectionID int64) (*models.Connection, error) {
	conn, err := s.store.GetConnection(connectionID)
	if err != nil {
		return nil, err
	}
	if conn.UserID != userID {
		return nil, ErrConnectionNotFound
	}
	return conn, nil
}

func (s *syncServiceImpl) CreateLinkToken(ctx context.Context, userID int64, providerName string) (string, error) {
	if providerName == "" {
		providerName = s.registry.Default().Name()
	}
	p, err := s.provider(providerName)
	if err != nil {
		return "", err
	}
	return p.CreateLinkToken(ctx, userID)
}

// ExchangePublicToken completes a linking flow: exchanges the public token,
// persists the connection and its sealed credentials, and stores the initial
// account snapshot. No transactions are fetched here; the first SyncConnection
// call does that with a full lookback window.
func (s *syncServiceImpl) ExchangePublicToken(ctx context.Context, userID int64, providerName, publicToken string) (*models.Connection, error) {
	log := logger.FromContext(ctx)
	if publicToken == "" {
		return nil, fmt.Errorf("%w: public token is required", ErrValidation)
	}
	if providerName == "" {
		providerName = s.registry.Default().Name()
	}
	p, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}

	creds, err := p.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	conn := &models.Connection{
		UserID:         userID,
		ProviderName:   p.Name(),
		ProviderItemID: creds.ItemID,
		IsConnected:    true,
		ConnectedAt:    time.Now().UTC(),
	}
	if inst, err := p.GetInstitution(ctx, creds); err != nil {
		log.Warn("Institution lookup failed, continuing without it", "provider", p.Name(), "error", err)
	} else {
		conn.InstitutionID = inst.ID
		conn.InstitutionName = validation.SanitizeText(inst.Name)
	}

	if err := s.store.CreateConnection(conn); err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}
	if err := s.store.SaveCredentials(conn.ID, creds); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}

	accounts, err := p.GetAccounts(ctx, creds)
	if err != nil {
		// The link itself succeeded; accounts arrive on the first sync.
		log.Warn("Initial account fetch failed", "connectionID", conn.ID, "error", err)
		return conn, nil
	}
	for i := range accounts {
		accounts[i].UserID = userID
		accounts[i].ConnectionID = conn.ID
		accounts[i].Name = validation.SanitizeText(accounts[i].Name)
		if err := s.store.UpsertAccount(&accounts[i]); err != nil {
			return nil, fmt.Errorf("failed to store account: %w", err)
		}
	}
	conn.AccountCount = len(accounts)
	log.Info("Connection linked", "connectionID", conn.ID, "provider", p.Name(), "accounts", len(accounts))
	return conn, nil
}

// SyncConnection runs one incremental sync for a connection. At most one sync
// per connection runs at a time; a concurrent attempt fails fast with
// ErrSyncInProgress instead of queueing. All provider fetches complete before
// any local mutation, so a provider failure leaves the stored state and
// last_sync_at untouched and the next attempt recovers the same window.
func (s *syncServiceImpl) SyncConnection(ctx context.Context, userID, connectionID int64) (*models.SyncResult, error) {
	log := logger.FromContext(ctx)

	muAny, _ := s.locks.LoadOrStore(connectionID, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	if !mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer mu.Unlock()

	conn, err := s.ownedConnection(userID, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.IsConnected {
		return nil, fmt.Errorf("%w: connection is disconnected", ErrValidation)
	}

	p, err := s.provider(conn.ProviderName)
	if err != nil {
		return nil, err
	}
	creds, err := s.store.GetCredentials(conn.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialsMissing, err)
	}

	now := time.Now().UTC()
	window := processors.CalculateSyncWindow(conn.LastSyncAt, now)
	log.Info("Sync started",
		"connectionID", conn.ID, "provider", conn.ProviderName,
		"windowStart", utils.FormatDay(window.StartDate), "windowEnd", utils.FormatDay(window.EndDate))

	// Fetch phase. Nothing is written until both calls succeed.
	provAccounts, err := p.GetAccounts(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("account fetch failed: %w", err)
	}
	provTxs, err := p.GetTransactions(ctx, creds, window.StartDate, window.EndDate)
	if err != nil {
		return nil, fmt.Errorf("transaction fetch failed: %w", err)
	}

	// Persist the account snapshot; UpsertAccount fills internal ids.
	for i := range provAccounts {
		provAccounts[i].UserID = userID
		provAccounts[i].ConnectionID = conn.ID
		provAccounts[i].Name = validation.SanitizeText(provAccounts[i].Name)
		if err := s.store.UpsertAccount(&provAccounts[i]); err != nil {
			return nil, fmt.Errorf("failed to store account: %w", err)
		}
	}

	idMap := processors.BuildAccountIDMap(provAccounts)
	for i := range provTxs {
		provTxs[i].UserID = userID
		provTxs[i].MerchantName = validation.SanitizeText(provTxs[i].MerchantName)
	}
	mapped, unmapped := processors.MapTransactionAccounts(provTxs, idMap)
	for _, tx := range unmapped {
		log.Warn("Transaction references unknown provider account",
			"connectionID", conn.ID,
			"providerTransactionID", tx.ProviderTransactionID,
			"providerAccountID", tx.ProviderAccountID)
	}

	existing, err := s.store.GetTransactionsForConnection(conn.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing transactions: %w", err)
	}
	fresh := processors.DedupeTransactions(existing, mapped)

	// Unmapped transactions with no prior account reference have nowhere to
	// live; dropping them keeps referential integrity and the warnings above
	// make the loss visible.
	persistable := fresh[:0]
	for _, tx := range fresh {
		if tx.AccountID == 0 {
			continue
		}
		persistable = append(persistable, tx)
	}

	inserted, err := s.store.InsertTransactions(persistable)
	if err != nil {
		return nil, fmt.Errorf("failed to store transactions: %w", err)
	}

	cursor := uuid.NewString()
	if err := s.store.MarkConnectionSynced(conn.ID, now, cursor, len(provAccounts), inserted); err != nil {
		return nil, fmt.Errorf("failed to mark connection synced: %w", err)
	}

	// Invalidation must survive the request being cancelled after persist.
	s.cache.InvalidateUserScope(context.WithoutCancel(ctx), userID)

	result := &models.SyncResult{
		ConnectionID:        conn.ID,
		ProviderName:        conn.ProviderName,
		Window:              window,
		AccountCount:        len(provAccounts),
		NewTransactionCount: inserted,
		UnmappedCount:       len(unmapped),
		SyncCursor:          cursor,
		SyncedAt:            now,
	}
	log.Info("Sync completed",
		"connectionID", conn.ID, "accounts", result.AccountCount,
		"newTransactions", result.NewTransactionCount, "unmapped", result.UnmappedCount,
		"cursor", cursor)
	return result, nil
}

// DisconnectConnection soft-disconnects first so the connection stops syncing
// even if a later cleanup step fails, then removes the connection's data and
// sealed credentials.
func (s *syncServiceImpl) DisconnectConnection(ctx context.Context, userID, connectionID int64) error {
	log := logger.FromContext(ctx)

	conn, err := s.ownedConnection(userID, connectionID)
	if err != nil {
		return err
	}

	if err := s.store.DisconnectConnection(conn.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to disconnect connection: %w", err)
	}

	txCount, err := s.store.DeleteTransactionsForConnection(conn.ID)
	if err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	acctCount, err := s.store.DeleteAccountsForConnection(conn.ID)
	if err != nil {
		return fmt.Errorf("failed to delete accounts: %w", err)
	}
	if err := s.store.DeleteCredentialsForConnection(conn.ID); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	if err := s.store.DeleteConnection(conn.ID); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	s.cache.InvalidateUserScope(context.WithoutCancel(ctx), userID)
	log.Info("Connection disconnected",
		"connectionID", conn.ID, "provider", conn.ProviderName,
		"transactionsRemoved", txCount, "accountsRemoved", acctCount)
	return nil
}
