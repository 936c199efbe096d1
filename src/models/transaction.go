package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one ledger entry. Amount is signed: negative means money
// leaving the account, positive means money coming in. Date is a calendar day
// (UTC midnight, no time component).
//
// ProviderTransactionID, when present, is unique per user and is the sole
// deduplication key. ProviderAccountID carries the provider-native account
// reference until reconciliation rewrites AccountID to the internal id.
type Transaction struct {
	ID                    int64           `json:"id,omitempty"`
	AccountID             int64           `json:"account_id"`
	UserID                int64           `json:"user_id"`
	ProviderTransactionID string          `json:"provider_transaction_id,omitempty"`
	ProviderAccountID     string          `json:"provider_account_id,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
	Date                  time.Time       `json:"date"`
	MerchantName          string          `json:"merchant_name,omitempty"`
	CategoryPrimary       string          `json:"category_primary,omitempty"`
	CategoryDetailed      string          `json:"category_detailed,omitempty"`
	CategoryConfidence    string          `json:"category_confidence,omitempty"`
	PaymentChannel        string          `json:"payment_channel,omitempty"`
	Pending               bool            `json:"pending"`
}
