// backend/src/services/store.go
package services

import (
	"database/sql"
	"time"

	"github.com/username/centavo/backend/src/model"
	"github.com/username/centavo/backend/src/models"
)

// sqlStore adapts the model package onto the Store interface.
type sqlStore struct {
	db      *sql.DB
	sealKey []byte
}

// NewSQLStore wraps the database handle as a Store. sealKey protects
// provider credentials at rest.
func NewSQLStore(db *sql.DB, sealKey []byte) Store {
	return &sqlStore{db: db, sealKey: sealKey}
}

func (s *sqlStore) GetConnection(id int64) (*models.Connection, error) {
	return model.GetConnectionByID(s.db, id)
}

func (s *sqlStore) CreateConnection(c *models.Connection) error {
	return model.CreateConnection(s.db, c)
}

func (s *sqlStore) SaveCredentials(connectionID int64, creds *models.ProviderCredentials) error {
	return model.SaveCredentials(s.db, s.sealKey, connectionID, creds)
}

func (s *sqlStore) GetCredentials(connectionID int64) (*models.ProviderCredentials, error) {
	return model.GetCredentials(s.db, s.sealKey, connectionID)
}

func (s *sqlStore) UpsertAccount(a *models.Account) error {
	return model.UpsertAccount(s.db, a)
}

func (s *sqlStore) GetAccountsForUser(userID int64, accountIDs []int64) ([]models.Account, error) {
	return model.GetAccountsForUser(s.db, userID, accountIDs)
}

func (s *sqlStore) GetTransactionsForConnection(connectionID int64) ([]models.Transaction, error) {
	return model.GetTransactionsForConnection(s.db, connectionID)
}

func (s *sqlStore) GetTransactionsForAccounts(accountIDs []int64, from, to time.Time) ([]models.Transaction, error) {
	return model.GetTransactionsForAccounts(s.db, accountIDs, from, to)
}

func (s *sqlStore) InsertTransactions(txs []models.Transaction) (int, error) {
	return model.InsertTransactions(s.db, txs)
}

func (s *sqlStore) MarkConnectionSynced(id int64, syncedAt time.Time, cursor string, accountCount, transactionCount int) error {
	return model.MarkConnectionSynced(s.db, id, syncedAt, cursor, accountCount, transactionCount)
}

func (s *sqlStore) DisconnectConnection(id int64, at time.Time) error {
	return model.DisconnectConnection(s.db, id, at)
}

func (s *sqlStore) DeleteTransactionsForConnection(connectionID int64) (int64, error) {
	return model.DeleteTransactionsForConnection(s.db, connectionID)
}

func (s *sqlStore) DeleteAccountsForConnection(connectionID int64) (int64, error) {
	return model.DeleteAccountsForConnection(s.db, connectionID)
}

func (s *sqlStore) DeleteCredentialsForConnection(connectionID int64) error {
	return model.DeleteCredentialsForConnection(s.db, connectionID)
}

func (s *sqlStore) DeleteConnection(id int64) error {
	return model.DeleteConnection(s.db, id)
}
