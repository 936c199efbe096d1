package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/centavo/backend/src/models"
)

func tx(providerTxID, providerAcctID string, amount string) models.Transaction {
	amt, _ := decimal.NewFromString(amount)
	return models.Transaction{
		ProviderTransactionID: providerTxID,
		ProviderAccountID:     providerAcctID,
		Amount:                amt,
	}
}

func TestDedupeTransactionsFiltersKnownIDs(t *testing.T) {
	existing := []models.Transaction{tx("t1", "a1", "-10.00"), tx("t2", "a1", "-20.00")}
	incoming := []models.Transaction{tx("t1", "a1", "-10.00"), tx("t3", "a1", "-30.00")}

	fresh := DedupeTransactions(existing, incoming)

	require.Len(t, fresh, 1)
	assert.Equal(t, "t3", fresh[0].ProviderTransactionID)
}

func TestDedupeTransactionsIDLessAlwaysPassThrough(t *testing.T) {
	existing := []models.Transaction{tx("", "a1", "-10.00"), tx("t1", "a1", "-20.00")}
	incoming := []models.Transaction{tx("", "a1", "-10.00"), tx("", "a1", "-99.00")}

	fresh := DedupeTransactions(existing, incoming)

	// Identifier-less transactions cannot be proven duplicates.
	assert.Len(t, fresh, 2)
}

func TestDedupeTransactionsIdempotent(t *testing.T) {
	existing := []models.Transaction{tx("t1", "a1", "-10.00")}
	incoming := []models.Transaction{tx("t1", "a1", "-10.00"), tx("t2", "a1", "-5.00"), tx("", "a1", "1.00")}

	once := DedupeTransactions(existing, incoming)
	twice := DedupeTransactions(existing, once)

	assert.Equal(t, once, twice)
}

func TestDedupeTransactionsEmptyInputs(t *testing.T) {
	assert.Empty(t, DedupeTransactions(nil, nil))
	assert.Len(t, DedupeTransactions(nil, []models.Transaction{tx("t1", "a1", "1.00")}), 1)
}

func TestBuildAccountIDMapSkipsAccountsWithoutProviderID(t *testing.T) {
	accounts := []models.Account{
		{ID: 11, ProviderAccountID: "acc-1"},
		{ID: 12, ProviderAccountID: ""},
		{ID: 13, ProviderAccountID: "acc-3"},
	}

	m := BuildAccountIDMap(accounts)

	assert.Equal(t, map[string]int64{"acc-1": 11, "acc-3": 13}, m)
}

func TestMapTransactionAccountsRewritesAndReportsUnmapped(t *testing.T) {
	idMap := map[string]int64{"acc-1": 11}
	batch := []models.Transaction{
		{ProviderAccountID: "acc-1", AccountID: 0},
		{ProviderAccountID: "acc-unknown", AccountID: 7},
	}

	mapped, unmapped := MapTransactionAccounts(batch, idMap)

	require.Len(t, mapped, 2)
	assert.Equal(t, int64(11), mapped[0].AccountID)
	// Unmapped transactions keep their prior account reference.
	assert.Equal(t, int64(7), mapped[1].AccountID)
	require.Len(t, unmapped, 1)
	assert.Equal(t, "acc-unknown", unmapped[0].ProviderAccountID)
}

func TestMapTransactionAccountsIdempotent(t *testing.T) {
	idMap := map[string]int64{"acc-1": 11, "acc-2": 12}
	batch := []models.Transaction{
		{ProviderAccountID: "acc-1"},
		{ProviderAccountID: "acc-2"},
	}

	once, _ := MapTransactionAccounts(batch, idMap)
	twice, unmapped := MapTransactionAccounts(once, idMap)

	assert.Equal(t, once, twice)
	assert.Empty(t, unmapped)
}
