package model

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/username/centavo/backend/src/models"
)

// ErrConnectionNotFound is returned when no connection row matches.
var ErrConnectionNotFound = errors.New("connection not found")

// CreateConnection inserts a new connection and fills in c.ID.
func CreateConnection(db *sql.DB, c *models.Connection) error {
	c.IsConnected = true
	if c.ConnectedAt.IsZero() {
		c.ConnectedAt = time.Now().UTC()
	}
	res, err := db.Exec(`
		INSERT INTO connections (user_id, provider_name, provider_item_id, is_connected, connected_at, institution_id, institution_name)
		VALUES (?, ?, ?, 1, ?, ?, ?)`,
		c.UserID, c.ProviderName, c.ProviderItemID, c.ConnectedAt, c.InstitutionID, c.InstitutionName,
	)
	if err != nil {
		return fmt.Errorf("inserting connection: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// GetConnectionByID fetches one connection row.
func GetConnectionByID(db *sql.DB, id int64) (*models.Connection, error) {
	row := db.QueryRow(connectionSelect+" WHERE id = ?", id)
	return scanConnection(row)
}

// GetConnectionsForUser returns all of a user's connections, oldest first.
func GetConnectionsForUser(db *sql.DB, userID int64) ([]models.Connection, error) {
	rows, err := db.Query(connectionSelect+" WHERE user_id = ? ORDER BY id ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close()
	var connections []models.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		connections = append(connections, *c)
	}
	return connections, rows.Err()
}

// MarkConnectionSynced records a successful sync: timestamp, fresh cursor and
// updated counters, in one statement so a failure leaves the previous sync
// state intact.
func MarkConnectionSynced(db *sql.DB, id int64, syncedAt time.Time, cursor string, accountCount, transactionCount int) error {
	res, err := db.Exec(`
		UPDATE connections
		SET last_sync_at = ?, sync_cursor = ?, account_count = ?, transaction_count = transaction_count + ?
		WHERE id = ?`,
		syncedAt, cursor, accountCount, transactionCount, id,
	)
	if err != nil {
		return fmt.Errorf("marking connection %d synced: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return ErrConnectionNotFound
	}
	return err
}

// DisconnectConnection soft-disconnects: the row survives with a
// disconnected_at timestamp until the hard delete.
func DisconnectConnection(db *sql.DB, id int64, at time.Time) error {
	_, err := db.Exec(
		"UPDATE connections SET is_connected = 0, disconnected_at = ? WHERE id = ?",
		at, id,
	)
	if err != nil {
		return fmt.Errorf("disconnecting connection %d: %w", id, err)
	}
	return nil
}

// DeleteConnection hard-deletes the connection row (credentials go with it
// via foreign key cascade).
func DeleteConnection(db *sql.DB, id int64) error {
	_, err := db.Exec("DELETE FROM connections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting connection %d: %w", id, err)
	}
	return nil
}

const connectionSelect = `
	SELECT id, user_id, provider_name, provider_item_id, is_connected, connected_at,
	       disconnected_at, last_sync_at, institution_id, institution_name,
	       sync_cursor, account_count, transaction_count
	FROM connections`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConnection(row rowScanner) (*models.Connection, error) {
	var c models.Connection
	var disconnectedAt, lastSyncAt sql.NullTime
	var cursor sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &c.ProviderName, &c.ProviderItemID, &c.IsConnected,
		&c.ConnectedAt, &disconnectedAt, &lastSyncAt, &c.InstitutionID, &c.InstitutionName,
		&cursor, &c.AccountCount, &c.TransactionCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConnectionNotFound
		}
		return nil, fmt.Errorf("scanning connection row: %w", err)
	}
	if disconnectedAt.Valid {
		t := disconnectedAt.Time
		c.DisconnectedAt = &t
	}
	if lastSyncAt.Valid {
		t := lastSyncAt.Time
		c.LastSyncAt = &t
	}
	c.SyncCursor = cursor.String
	return &c, nil
}
