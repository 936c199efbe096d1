package model

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/centavo/backend/src/logger"
	"github.com/username/centavo/backend/src/models"
	"github.com/username/centavo/backend/src/utils"
)

// InsertTransactions inserts a batch of new transactions in one database
// transaction and returns how many rows landed. Rows violating the per-user
// provider transaction id uniqueness are skipped, not fatal: a concurrent
// sync may have won the race and the batch stays idempotent.
func InsertTransactions(db *sql.DB, txs []models.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	dbTx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()
	stmt, err := dbTx.Prepare(`INSERT INTO transactions
		(account_id, user_id, provider_transaction_id, provider_account_id, amount, date,
		merchant_name, category_primary, category_detailed, category_confidence, payment_channel, pending)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()
	insertedCount := 0
	for _, tx := range txs {
		_, err := stmt.Exec(
			tx.AccountID, tx.UserID, nullIfEmpty(tx.ProviderTransactionID), tx.ProviderAccountID,
			tx.Amount.String(), utils.FormatDay(tx.Date),
			tx.MerchantName, tx.CategoryPrimary, tx.CategoryDetailed, tx.CategoryConfidence,
			tx.PaymentChannel, tx.Pending,
		)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				logger.L.Debug("Skipping duplicate transaction on insert", "userID", tx.UserID, "providerTransactionID", tx.ProviderTransactionID)
				continue
			}
			return 0, fmt.Errorf("error inserting transaction (provider id %s): %w", tx.ProviderTransactionID, err)
		}
		insertedCount++
	}
	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing transactions: %w", err)
	}
	return insertedCount, nil
}

// GetTransactionsForConnection returns every stored transaction whose account
// belongs to the connection, oldest first.
func GetTransactionsForConnection(db *sql.DB, connectionID int64) ([]models.Transaction, error) {
	query := transactionSelect + `
		WHERE t.account_id IN (SELECT id FROM accounts WHERE connection_id = ?)
		ORDER BY t.date ASC, t.id ASC`
	return queryTransactions(db, query, connectionID)
}

// GetTransactionsForAccounts returns transactions of the given accounts with
// date in [from, to] inclusive, oldest first.
func GetTransactionsForAccounts(db *sql.DB, accountIDs []int64, from, to time.Time) ([]models.Transaction, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	query := transactionSelect + `
		WHERE t.account_id IN (?` + strings.Repeat(",?", len(accountIDs)-1) + `)
		AND t.date >= ? AND t.date <= ?
		ORDER BY t.date ASC, t.id ASC`
	args := make([]interface{}, 0, len(accountIDs)+2)
	for _, id := range accountIDs {
		args = append(args, id)
	}
	args = append(args, utils.FormatDay(from), utils.FormatDay(to))
	return queryTransactions(db, query, args...)
}

// DeleteTransactionsForConnection bulk-deletes the connection's transactions
// and returns the count.
func DeleteTransactionsForConnection(db *sql.DB, connectionID int64) (int64, error) {
	res, err := db.Exec(
		"DELETE FROM transactions WHERE account_id IN (SELECT id FROM accounts WHERE connection_id = ?)",
		connectionID,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting transactions for connection %d: %w", connectionID, err)
	}
	return res.RowsAffected()
}

const transactionSelect = `
	SELECT t.id, t.account_id, t.user_id, t.provider_transaction_id, t.provider_account_id,
	       t.amount, t.date, t.merchant_name, t.category_primary, t.category_detailed,
	       t.category_confidence, t.payment_channel, t.pending
	FROM transactions t`

func queryTransactions(db *sql.DB, query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()
	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var providerTxID sql.NullString
		var amount, date string
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.UserID, &providerTxID, &tx.ProviderAccountID,
			&amount, &date, &tx.MerchantName, &tx.CategoryPrimary, &tx.CategoryDetailed,
			&tx.CategoryConfidence, &tx.PaymentChannel, &tx.Pending); err != nil {
			return nil, fmt.Errorf("scanning transaction row: %w", err)
		}
		tx.ProviderTransactionID = providerTxID.String
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parsing stored amount %q: %w", amount, err)
		}
		if tx.Date, err = utils.ParseDay(date); err != nil {
			return nil, fmt.Errorf("parsing stored date %q: %w", date, err)
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// nullIfEmpty keeps the per-user unique index on provider transaction ids
// from colliding on identifier-less rows.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
