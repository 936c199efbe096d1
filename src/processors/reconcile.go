// backend/src/processors/reconcile.go
package processors

import "github.com/username/centavo/backend/src/models"

// DedupeTransactions returns the subset of incoming whose provider transaction
// id does not already appear among existing. Transactions without a provider
// id cannot be proven duplicates and always pass through; this is deliberate
// policy, not an oversight.
func DedupeTransactions(existing, incoming []models.Transaction) []models.Transaction {
	seen := make(map[string]struct{}, len(existing))
	for _, tx := range existing {
		if tx.ProviderTransactionID != "" {
			seen[tx.ProviderTransactionID] = struct{}{}
		}
	}
	fresh := make([]models.Transaction, 0, len(incoming))
	for _, tx := range incoming {
		if tx.ProviderTransactionID != "" {
			if _, dup := seen[tx.ProviderTransactionID]; dup {
				continue
			}
		}
		fresh = append(fresh, tx)
	}
	return fresh
}

// BuildAccountIDMap maps provider-native account ids onto internal account
// ids. Accounts without a provider-native id are excluded.
func BuildAccountIDMap(accounts []models.Account) map[string]int64 {
	m := make(map[string]int64, len(accounts))
	for _, a := range accounts {
		if a.ProviderAccountID != "" {
			m[a.ProviderAccountID] = a.ID
		}
	}
	return m
}

// MapTransactionAccounts rewrites each transaction's AccountID from its
// provider-native account reference wherever idMap has an entry. Transactions
// whose provider account id has no entry keep their prior account reference
// and are returned in unmapped so the caller can log them instead of silently
// misfiling. Applying the same map twice is a no-op.
func MapTransactionAccounts(txs []models.Transaction, idMap map[string]int64) (mapped, unmapped []models.Transaction) {
	mapped = make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if internalID, ok := idMap[tx.ProviderAccountID]; ok {
			tx.AccountID = internalID
		} else {
			unmapped = append(unmapped, tx)
		}
		mapped = append(mapped, tx)
	}
	return mapped, unmapped
}
