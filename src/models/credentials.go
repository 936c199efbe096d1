package models

// ProviderCredentials holds the durable server-side credentials obtained from
// a public-token exchange. AccessToken and the optional client certificate
// material are stored sealed by the persistence layer and must never be
// logged.
type ProviderCredentials struct {
	ProviderName string `json:"-"`
	AccessToken  string `json:"-"`
	ItemID       string `json:"-"`
	// Client certificate and key PEM for providers requiring mutual TLS.
	ClientCertPEM []byte `json:"-"`
	ClientKeyPEM  []byte `json:"-"`
}
