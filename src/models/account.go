package models

import "github.com/shopspring/decimal"

// AccountCategory classifies an account for aggregate selection.
type AccountCategory string

const (
	CategoryDepository AccountCategory = "depository"
	CategoryCredit     AccountCategory = "credit"
	CategoryLoan       AccountCategory = "loan"
	CategoryInvestment AccountCategory = "investment"
)

// CashBearingCategories are the categories included in net-worth-over-time.
// Balances are stored signed (liabilities negative), so the aggregate is a
// plain sum over the selected accounts.
var CashBearingCategories = []AccountCategory{CategoryDepository, CategoryInvestment}

// Account is an internally owned account linked to one provider connection.
// ProviderAccountID is the provider-native identifier; it is empty when the
// provider supplied none. At most one Account exists per
// (connection, provider_account_id) pair.
type Account struct {
	ID                int64               `json:"id,omitempty"`
	UserID            int64               `json:"user_id"`
	ConnectionID      int64               `json:"connection_id"`
	ProviderAccountID string              `json:"provider_account_id,omitempty"`
	Name              string              `json:"name"`
	Category          AccountCategory     `json:"category"`
	Subtype           string              `json:"subtype,omitempty"`
	CurrentBalance    decimal.NullDecimal `json:"current_balance"`
	Currency          string              `json:"currency"`
}
