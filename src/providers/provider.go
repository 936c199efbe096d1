// backend/src/providers/provider.go
package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/username/centavo/backend/src/models"
)

// Provider is the capability contract every external financial-data source
// implements. All methods may fail with a *RequestError on network or
// provider-side failures; callers must not retry silently mid-request.
// Retries are the sync orchestrator's responsibility.
type Provider interface {
	// Name returns the stable lowercase identifier used as registry key.
	Name() string

	// CreateLinkToken begins an account-linking flow. Providers needing no
	// server-issued token synthesize a deterministic placeholder.
	CreateLinkToken(ctx context.Context, userID int64) (string, error)

	// ExchangePublicToken converts a client-obtained token into durable
	// server-side credentials plus a provider item identifier.
	ExchangePublicToken(ctx context.Context, publicToken string) (*models.ProviderCredentials, error)

	GetAccounts(ctx context.Context, creds *models.ProviderCredentials) ([]models.Account, error)

	// GetTransactions returns all transactions with date in [start, end]
	// inclusive. Providers that cannot filter server-side filter client-side
	// before returning.
	GetTransactions(ctx context.Context, creds *models.ProviderCredentials, start, end time.Time) ([]models.Transaction, error)

	GetInstitution(ctx context.Context, creds *models.ProviderCredentials) (*models.InstitutionInfo, error)
}

// RequestError wraps a network or provider-side failure during a provider
// call. Status is the HTTP status when one was received, zero otherwise.
type RequestError struct {
	Provider string
	Status   int
	Err      error
}

func (e *RequestError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("provider %s request failed (status %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("provider %s request failed: %v", e.Provider, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
