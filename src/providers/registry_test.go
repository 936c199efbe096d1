package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/centavo/backend/src/models"
)

type stubProvider struct{ name string }

func (p *stubProvider) Name() string { return p.name }
func (p *stubProvider) CreateLinkToken(context.Context, int64) (string, error) {
	return "stub", nil
}
func (p *stubProvider) ExchangePublicToken(context.Context, string) (*models.ProviderCredentials, error) {
	return &models.ProviderCredentials{ProviderName: p.name}, nil
}
func (p *stubProvider) GetAccounts(context.Context, *models.ProviderCredentials) ([]models.Account, error) {
	return nil, nil
}
func (p *stubProvider) GetTransactions(context.Context, *models.ProviderCredentials, time.Time, time.Time) ([]models.Transaction, error) {
	return nil, nil
}
func (p *stubProvider) GetInstitution(context.Context, *models.ProviderCredentials) (*models.InstitutionInfo, error) {
	return nil, nil
}

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	reg, err := NewRegistry("plaid", &stubProvider{name: "plaid"}, &stubProvider{name: "teller"})
	require.NoError(t, err)

	for _, name := range []string{"plaid", "PLAID", "  Plaid  "} {
		p, ok := reg.Get(name)
		require.True(t, ok, "lookup %q", name)
		assert.Equal(t, "plaid", p.Name())
	}

	_, ok := reg.Get("monzo")
	assert.False(t, ok)
}

func TestRegistryUnknownDefaultFailsFast(t *testing.T) {
	_, err := NewRegistry("plaid", &stubProvider{name: "teller"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownDefaultProvider)
}

func TestRegistryDefaultAndNames(t *testing.T) {
	reg, err := NewRegistry("Teller", &stubProvider{name: "plaid"}, &stubProvider{name: "teller"})
	require.NoError(t, err)

	assert.Equal(t, "teller", reg.Default().Name())
	assert.Equal(t, []string{"plaid", "teller"}, reg.Names())
}
