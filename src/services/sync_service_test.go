// backend/src/services/sync_service_test.go
package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/centavo/backend/src/models"
	"github.com/username/centavo/backend/src/providers"
)

// fakeStore is an in-memory Store recording mutations for assertions.
type fakeStore struct {
	connections map[int64]*models.Connection
	credentials map[int64]*models.ProviderCredentials
	accounts    []models.Account
	txs         []models.Transaction

	nextAccountID int64
	markedSynced  bool
	markedCursor  string
	insertedCount int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		connections:   map[int64]*models.Connection{},
		credentials:   map[int64]*models.ProviderCredentials{},
		nextAccountID: 100,
	}
}

func (f *fakeStore) GetConnection(id int64) (*models.Connection, error) {
	conn, ok := f.connections[id]
	if !ok {
		return nil, ErrConnectionNotFound
	}
	copied := *conn
	return &copied, nil
}

func (f *fakeStore) CreateConnection(c *models.Connection) error {
	c.ID = int64(len(f.connections) + 1)
	f.connections[c.ID] = c
	return nil
}

func (f *fakeStore) SaveCredentials(connectionID int64, creds *models.ProviderCredentials) error {
	f.credentials[connectionID] = creds
	return nil
}

func (f *fakeStore) GetCredentials(connectionID int64) (*models.ProviderCredentials, error) {
	creds, ok := f.credentials[connectionID]
	if !ok {
		return nil, errors.New("no credentials row")
	}
	return creds, nil
}

func (f *fakeStore) UpsertAccount(a *models.Account) error {
	for _, existing := range f.accounts {
		if existing.ConnectionID == a.ConnectionID && existing.ProviderAccountID != "" &&
			existing.ProviderAccountID == a.ProviderAccountID {
			a.ID = existing.ID
			return nil
		}
	}
	f.nextAccountID++
	a.ID = f.nextAccountID
	f.accounts = append(f.accounts, *a)
	return nil
}

func (f *fakeStore) GetAccountsForUser(userID int64, accountIDs []int64) ([]models.Account, error) {
	var out []models.Account
	for _, a := range f.accounts {
		if a.UserID != userID {
			continue
		}
		if len(accountIDs) > 0 {
			found := false
			for _, id := range accountIDs {
				if id == a.ID {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) GetTransactionsForConnection(connectionID int64) ([]models.Transaction, error) {
	return f.txs, nil
}

func (f *fakeStore) GetTransactionsForAccounts(accountIDs []int64, from, to time.Time) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range f.txs {
		for _, id := range accountIDs {
			if tx.AccountID == id && !tx.Date.Before(from) && !tx.Date.After(to) {
				out = append(out, tx)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) InsertTransactions(txs []models.Transaction) (int, error) {
	f.txs = append(f.txs, txs...)
	f.insertedCount = len(txs)
	return len(txs), nil
}

func (f *fakeStore) MarkConnectionSynced(id int64, syncedAt time.Time, cursor string, accountCount, transactionCount int) error {
	conn := f.connections[id]
	at := syncedAt
	conn.LastSyncAt = &at
	conn.SyncCursor = cursor
	conn.AccountCount = accountCount
	conn.TransactionCount += transactionCount
	f.markedSynced = true
	f.markedCursor = cursor
	return nil
}

func (f *fakeStore) DisconnectConnection(id int64, at time.Time) error {
	conn := f.connections[id]
	conn.IsConnected = false
	conn.DisconnectedAt = &at
	return nil
}

func (f *fakeStore) DeleteTransactionsForConnection(connectionID int64) (int64, error) {
	n := int64(len(f.txs))
	f.txs = nil
	return n, nil
}

func (f *fakeStore) DeleteAccountsForConnection(connectionID int64) (int64, error) {
	n := int64(len(f.accounts))
	f.accounts = nil
	return n, nil
}

func (f *fakeStore) DeleteCredentialsForConnection(connectionID int64) error {
	delete(f.credentials, connectionID)
	return nil
}

func (f *fakeStore) DeleteConnection(id int64) error {
	delete(f.connections, id)
	return nil
}

// fakeCache records invalidations and serves a plain map.
type fakeCache struct {
	entries       map[string]string
	invalidations []int64
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]string{}} }

func (f *fakeCache) Get(ctx context.Context, key string) (string, bool) {
	v, ok := f.entries[key]
	return v, ok
}

func (f *fakeCache) SetForSession(ctx context.Context, key, value, sessionToken string) {
	f.entries[key] = value
}

func (f *fakeCache) InvalidateUserScope(ctx context.Context, userID int64) {
	f.invalidations = append(f.invalidations, userID)
	f.entries = map[string]string{}
}

// fakeProvider returns canned data.
type fakeProvider struct {
	name     string
	accounts []models.Account
	txs      []models.Transaction
	fetchErr error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) CreateLinkToken(ctx context.Context, userID int64) (string, error) {
	return "link-" + p.name, nil
}

func (p *fakeProvider) ExchangePublicToken(ctx context.Context, publicToken string) (*models.ProviderCredentials, error) {
	return &models.ProviderCredentials{AccessToken: "access-" + publicToken, ItemID: "item-1"}, nil
}

func (p *fakeProvider) GetAccounts(ctx context.Context, creds *models.ProviderCredentials) ([]models.Account, error) {
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	out := make([]models.Account, len(p.accounts))
	copy(out, p.accounts)
	return out, nil
}

func (p *fakeProvider) GetTransactions(ctx context.Context, creds *models.ProviderCredentials, start, end time.Time) ([]models.Transaction, error) {
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	out := make([]models.Transaction, len(p.txs))
	copy(out, p.txs)
	return out, nil
}

func (p *fakeProvider) GetInstitution(ctx context.Context, creds *models.ProviderCredentials) (*models.InstitutionInfo, error) {
	return &models.InstitutionInfo{ID: "ins_1", Name: "Test Bank"}, nil
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func newSyncFixture(t *testing.T, p *fakeProvider) (SyncService, *fakeStore, *fakeCache) {
	t.Helper()
	registry, err := providers.NewRegistry(p.name, p)
	require.NoError(t, err)
	store := newFakeStore()
	cache := newFakeCache()
	return NewSyncService(registry, store, cache), store, cache
}

func TestSyncConnection_FirstSyncDedupesAndPersists(t *testing.T) {
	p := &fakeProvider{
		name: "plaid",
		accounts: []models.Account{
			{ProviderAccountID: "pa1", Name: "Checking", Category: models.CategoryDepository, Currency: "EUR"},
		},
		txs: []models.Transaction{
			{ProviderTransactionID: "t1", ProviderAccountID: "pa1", Amount: decimal.NewFromInt(-10), Date: day("2024-03-01")},
			{ProviderTransactionID: "t2", ProviderAccountID: "pa1", Amount: decimal.NewFromInt(-20), Date: day("2024-03-02")},
			{ProviderTransactionID: "", ProviderAccountID: "pa1", Amount: decimal.NewFromInt(5), Date: day("2024-03-03")},
		},
	}
	svc, store, cache := newSyncFixture(t, p)

	store.connections[1] = &models.Connection{ID: 1, UserID: 42, ProviderName: "plaid", IsConnected: true}
	store.credentials[1] = &models.ProviderCredentials{AccessToken: "tok"}
	// "t1" is already stored from a prior sync.
	store.txs = []models.Transaction{{ProviderTransactionID: "t1", AccountID: 101, UserID: 42}}

	result, err := svc.SyncConnection(context.Background(), 42, 1)
	require.NoError(t, err)

	// First sync: no last_sync_at, so the window spans the full lookback.
	assert.True(t, result.Window.StartDate.Before(result.Window.EndDate))
	assert.Equal(t, 1, result.AccountCount)
	// "t1" is a duplicate; "t2" and the id-less transaction are new.
	assert.Equal(t, 2, result.NewTransactionCount)
	assert.Zero(t, result.UnmappedCount)
	assert.NotEmpty(t, result.SyncCursor)

	assert.True(t, store.markedSynced)
	assert.Equal(t, result.SyncCursor, store.markedCursor)
	require.NotNil(t, store.connections[1].LastSyncAt)
	assert.Equal(t, []int64{42}, cache.invalidations)
}

func TestSyncConnection_UnmappedTransactionsReportedAndDropped(t *testing.T) {
	p := &fakeProvider{
		name: "plaid",
		accounts: []models.Account{
			{ProviderAccountID: "pa1", Name: "Checking", Category: models.CategoryDepository, Currency: "EUR"},
		},
		txs: []models.Transaction{
			{ProviderTransactionID: "t1", ProviderAccountID: "pa1", Amount: decimal.NewFromInt(-10), Date: day("2024-03-01")},
			{ProviderTransactionID: "t9", ProviderAccountID: "pa-ghost", Amount: decimal.NewFromInt(-99), Date: day("2024-03-02")},
		},
	}
	svc, store, _ := newSyncFixture(t, p)
	store.connections[1] = &models.Connection{ID: 1, UserID: 42, ProviderName: "plaid", IsConnected: true}
	store.credentials[1] = &models.ProviderCredentials{AccessToken: "tok"}

	result, err := svc.SyncConnection(context.Background(), 42, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.UnmappedCount)
	// The ghost transaction has no prior account reference and is not stored.
	assert.Equal(t, 1, result.NewTransactionCount)
	assert.Len(t, store.txs, 1)
	assert.Equal(t, "t1", store.txs[0].ProviderTransactionID)
}

func TestSyncConnection_ProviderFailureLeavesStateUntouched(t *testing.T) {
	p := &fakeProvider{
		name:     "plaid",
		fetchErr: &providers.RequestError{Provider: "plaid", Status: 500, Err: errors.New("boom")},
	}
	svc, store, cache := newSyncFixture(t, p)
	store.connections[1] = &models.Connection{ID: 1, UserID: 42, ProviderName: "plaid", IsConnected: true}
	store.credentials[1] = &models.ProviderCredentials{AccessToken: "tok"}

	_, err := svc.SyncConnection(context.Background(), 42, 1)
	require.Error(t, err)
	var reqErr *providers.RequestError
	assert.ErrorAs(t, err, &reqErr)

	assert.False(t, store.markedSynced)
	assert.Nil(t, store.connections[1].LastSyncAt)
	assert.Empty(t, store.txs)
	assert.Empty(t, cache.invalidations)
}

func TestSyncConnection_ForeignConnectionRejected(t *testing.T) {
	p := &fakeProvider{name: "plaid"}
	svc, store, _ := newSyncFixture(t, p)
	store.connections[1] = &models.Connection{ID: 1, UserID: 7, ProviderName: "plaid", IsConnected: true}

	_, err := svc.SyncConnection(context.Background(), 42, 1)
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestSyncConnection_ConcurrentSyncFailsFast(t *testing.T) {
	p := &fakeProvider{name: "plaid"}
	svcIface, store, _ := newSyncFixture(t, p)
	store.connections[1] = &models.Connection{ID: 1, UserID: 42, ProviderName: "plaid", IsConnected: true}
	store.credentials[1] = &models.ProviderCredentials{AccessToken: "tok"}

	svc := svcIface.(*syncServiceImpl)
	muAny, _ := svc.locks.LoadOrStore(int64(1), &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	_, err := svc.SyncConnection(context.Background(), 42, 1)
	assert.ErrorIs(t, err, ErrSyncInProgress)
}

func TestSyncConnection_MissingCredentials(t *testing.T) {
	p := &fakeProvider{name: "plaid"}
	svc, store, _ := newSyncFixture(t, p)
	store.connections[1] = &models.Connection{ID: 1, UserID: 42, ProviderName: "plaid", IsConnected: true}

	_, err := svc.SyncConnection(context.Background(), 42, 1)
	assert.ErrorIs(t, err, ErrCredentialsMissing)
}

func TestExchangePublicToken_CreatesConnectionAndAccounts(t *testing.T) {
	p := &fakeProvider{
		name: "plaid",
		accounts: []models.Account{
			{ProviderAccountID: "pa1", Name: "Checking", Category: models.CategoryDepository, Currency: "EUR"},
			{ProviderAccountID: "pa2", Name: "Savings", Category: models.CategoryDepository, Currency: "EUR"},
		},
	}
	svc, store, _ := newSyncFixture(t, p)

	conn, err := svc.ExchangePublicToken(context.Background(), 42, "plaid", "public-tok")
	require.NoError(t, err)
	assert.Equal(t, "item-1", conn.ProviderItemID)
	assert.Equal(t, "Test Bank", conn.InstitutionName)
	assert.Equal(t, 2, conn.AccountCount)
	assert.True(t, conn.IsConnected)
	assert.Len(t, store.accounts, 2)
	require.Contains(t, store.credentials, conn.ID)
	assert.Equal(t, "access-public-tok", store.credentials[conn.ID].AccessToken)
}

func TestDisconnectConnection_RemovesDataAndInvalidates(t *testing.T) {
	p := &fakeProvider{name: "plaid"}
	svc, store, cache := newSyncFixture(t, p)
	store.connections[1] = &models.Connection{ID: 1, UserID: 42, ProviderName: "plaid", IsConnected: true}
	store.credentials[1] = &models.ProviderCredentials{AccessToken: "tok"}
	store.txs = []models.Transaction{{ProviderTransactionID: "t1", AccountID: 101, UserID: 42}}
	store.accounts = []models.Account{{ID: 101, UserID: 42, ConnectionID: 1}}

	err := svc.DisconnectConnection(context.Background(), 42, 1)
	require.NoError(t, err)
	assert.Empty(t, store.txs)
	assert.Empty(t, store.accounts)
	assert.NotContains(t, store.credentials, int64(1))
	assert.NotContains(t, store.connections, int64(1))
	assert.Equal(t, []int64{42}, cache.invalidations)
}

func TestCreateLinkToken_UnknownProvider(t *testing.T) {
	p := &fakeProvider{name: "plaid"}
	svc, _, _ := newSyncFixture(t, p)

	_, err := svc.CreateLinkToken(context.Background(), 42, "nonexistent")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
