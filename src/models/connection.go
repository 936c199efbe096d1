package models

import "time"

// Connection is the durable record of one user's link to one provider
// item/enrollment. SyncCursor is an opaque idempotency/audit token minted on
// each successful sync; it is not a pagination cursor.
type Connection struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	ProviderName     string     `json:"provider_name"`
	ProviderItemID   string     `json:"provider_item_id"`
	IsConnected      bool       `json:"is_connected"`
	ConnectedAt      time.Time  `json:"connected_at"`
	DisconnectedAt   *time.Time `json:"disconnected_at,omitempty"`
	LastSyncAt       *time.Time `json:"last_sync_at,omitempty"`
	InstitutionID    string     `json:"institution_id,omitempty"`
	InstitutionName  string     `json:"institution_name,omitempty"`
	SyncCursor       string     `json:"sync_cursor,omitempty"`
	AccountCount     int        `json:"account_count"`
	TransactionCount int        `json:"transaction_count"`
}
