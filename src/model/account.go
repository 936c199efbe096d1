package model

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/centavo/backend/src/models"
)

// UpsertAccount inserts the account or, when the (connection, provider
// account id) pair already exists, refreshes the mutable fields. a.ID carries
// the internal id afterwards either way.
func UpsertAccount(db *sql.DB, a *models.Account) error {
	balance := balanceArg(a.CurrentBalance)
	if a.ProviderAccountID == "" {
		// No provider-native id means no conflict target; always a new row.
		res, err := db.Exec(`
			INSERT INTO accounts (user_id, connection_id, provider_account_id, name, category, subtype, current_balance, currency)
			VALUES (?, ?, '', ?, ?, ?, ?, ?)`,
			a.UserID, a.ConnectionID, a.Name, a.Category, a.Subtype, balance, a.Currency,
		)
		if err != nil {
			return fmt.Errorf("inserting account %q: %w", a.Name, err)
		}
		a.ID, err = res.LastInsertId()
		return err
	}

	_, err := db.Exec(`
		INSERT INTO accounts (user_id, connection_id, provider_account_id, name, category, subtype, current_balance, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(connection_id, provider_account_id) WHERE provider_account_id <> ''
		DO UPDATE SET name = excluded.name, category = excluded.category,
			subtype = excluded.subtype, current_balance = excluded.current_balance,
			currency = excluded.currency`,
		a.UserID, a.ConnectionID, a.ProviderAccountID, a.Name, a.Category, a.Subtype, balance, a.Currency,
	)
	if err != nil {
		return fmt.Errorf("upserting account %q: %w", a.Name, err)
	}
	return db.QueryRow(
		"SELECT id FROM accounts WHERE connection_id = ? AND provider_account_id = ?",
		a.ConnectionID, a.ProviderAccountID,
	).Scan(&a.ID)
}

// GetAccountsForUser returns the user's accounts, optionally restricted to
// the given internal ids. Results are always scoped to userID; a filter id
// belonging to another user simply yields no row.
func GetAccountsForUser(db *sql.DB, userID int64, accountIDs []int64) ([]models.Account, error) {
	query := accountSelect + " WHERE user_id = ?"
	args := []interface{}{userID}
	if len(accountIDs) > 0 {
		query += " AND id IN (?" + strings.Repeat(",?", len(accountIDs)-1) + ")"
		for _, id := range accountIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY id ASC"
	return queryAccounts(db, query, args...)
}

// GetAccountsForConnection returns every account owned by one connection.
func GetAccountsForConnection(db *sql.DB, connectionID int64) ([]models.Account, error) {
	return queryAccounts(db, accountSelect+" WHERE connection_id = ? ORDER BY id ASC", connectionID)
}

// DeleteAccountsForConnection removes all accounts of a connection and
// returns how many rows went away.
func DeleteAccountsForConnection(db *sql.DB, connectionID int64) (int64, error) {
	res, err := db.Exec("DELETE FROM accounts WHERE connection_id = ?", connectionID)
	if err != nil {
		return 0, fmt.Errorf("deleting accounts for connection %d: %w", connectionID, err)
	}
	return res.RowsAffected()
}

const accountSelect = `
	SELECT id, user_id, connection_id, provider_account_id, name, category, subtype, current_balance, currency
	FROM accounts`

func queryAccounts(db *sql.DB, query string, args ...interface{}) ([]models.Account, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()
	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		var balance sql.NullString
		if err := rows.Scan(&a.ID, &a.UserID, &a.ConnectionID, &a.ProviderAccountID,
			&a.Name, &a.Category, &a.Subtype, &balance, &a.Currency); err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}
		if balance.Valid {
			if v, err := decimal.NewFromString(balance.String); err == nil {
				a.CurrentBalance = decimal.NullDecimal{Decimal: v, Valid: true}
			}
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// balanceArg renders a nullable decimal as TEXT so no precision is lost in
// the database.
func balanceArg(b decimal.NullDecimal) interface{} {
	if !b.Valid {
		return nil
	}
	return b.Decimal.String()
}
