package models

import "time"

// SyncWindow is the [StartDate, EndDate] range requested from a provider
// during an incremental sync. StartDate <= EndDate always holds.
type SyncWindow struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// SyncResult summarises one completed connection sync.
type SyncResult struct {
	ConnectionID        int64      `json:"connection_id"`
	ProviderName        string     `json:"provider_name"`
	Window              SyncWindow `json:"window"`
	AccountCount        int        `json:"account_count"`
	NewTransactionCount int        `json:"new_transaction_count"`
	UnmappedCount       int        `json:"unmapped_count"`
	SyncCursor          string     `json:"sync_cursor"`
	SyncedAt            time.Time  `json:"synced_at"`
}
