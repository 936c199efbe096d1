// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/username/centavo/backend/src/models"
)

// Common service errors. Handlers map these onto HTTP statuses; provider
// request failures additionally carry a *providers.RequestError in the chain.
var (
	ErrProviderUnavailable = errors.New("provider not registered")
	ErrCredentialsMissing  = errors.New("provider credentials not found")
	ErrValidation          = errors.New("validation failed")
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrSyncInProgress      = errors.New("a sync is already running for this connection")
)

// Store abstracts the persistence consumed by the sync and ledger services.
// Every user-scoped read is constrained to the requesting user by the
// queries themselves.
type Store interface {
	GetConnection(id int64) (*models.Connection, error)
	CreateConnection(c *models.Connection) error
	SaveCredentials(connectionID int64, creds *models.ProviderCredentials) error
	GetCredentials(connectionID int64) (*models.ProviderCredentials, error)
	UpsertAccount(a *models.Account) error
	GetAccountsForUser(userID int64, accountIDs []int64) ([]models.Account, error)
	GetTransactionsForConnection(connectionID int64) ([]models.Transaction, error)
	GetTransactionsForAccounts(accountIDs []int64, from, to time.Time) ([]models.Transaction, error)
	InsertTransactions(txs []models.Transaction) (int, error)
	MarkConnectionSynced(id int64, syncedAt time.Time, cursor string, accountCount, transactionCount int) error
	DisconnectConnection(id int64, at time.Time) error
	DeleteTransactionsForConnection(connectionID int64) (int64, error)
	DeleteAccountsForConnection(connectionID int64) (int64, error)
	DeleteCredentialsForConnection(connectionID int64) error
	DeleteConnection(id int64) error
}

// AnalyticsCache is the slice of the cache coordinator the services depend
// on. Implementations never fail the caller: every operation degrades to a
// miss or a logged warning.
type AnalyticsCache interface {
	Get(ctx context.Context, key string) (string, bool)
	SetForSession(ctx context.Context, key, value, sessionToken string)
	InvalidateUserScope(ctx context.Context, userID int64)
}

// SyncService drives the full lifecycle of provider connections: linking,
// incremental syncs and disconnects.
type SyncService interface {
	CreateLinkToken(ctx context.Context, userID int64, providerName string) (string, error)
	ExchangePublicToken(ctx context.Context, userID int64, providerName, publicToken string) (*models.Connection, error)
	SyncConnection(ctx context.Context, userID, connectionID int64) (*models.SyncResult, error)
	DisconnectConnection(ctx context.Context, userID, connectionID int64) error
}

// SeriesQuery carries the parameters of one reconstruction request.
// AccountIDs empty means all of the user's accounts; Categories empty means
// the cash-bearing default.
type SeriesQuery struct {
	UserID       int64
	SessionToken string
	Categories   []models.AccountCategory
	AccountIDs   []int64
	StartDate    time.Time
	EndDate      time.Time
}

// LedgerService answers analytical time-series queries against the stored
// ledger.
type LedgerService interface {
	GetNetWorthSeries(ctx context.Context, q SeriesQuery) (*models.SeriesResult, error)
	GetOverview(ctx context.Context, userID int64, sessionToken string) (*models.OverviewResult, error)
}
