package model

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/username/centavo/backend/src/models"
)

// ErrCredentialsNotFound is returned when a connection has no stored
// provider credentials.
var ErrCredentialsNotFound = errors.New("provider credentials not found")

// SaveCredentials seals the secret material with AES-256-GCM and stores one
// row per connection. Access tokens and certificate material never touch the
// database in the clear and are never logged.
func SaveCredentials(db *sql.DB, key []byte, connectionID int64, creds *models.ProviderCredentials) error {
	sealedToken, err := seal(key, []byte(creds.AccessToken))
	if err != nil {
		return fmt.Errorf("sealing access token: %w", err)
	}
	var sealedCert, sealedKey sql.NullString
	if len(creds.ClientCertPEM) > 0 {
		s, err := seal(key, creds.ClientCertPEM)
		if err != nil {
			return fmt.Errorf("sealing client certificate: %w", err)
		}
		sealedCert = sql.NullString{String: s, Valid: true}
	}
	if len(creds.ClientKeyPEM) > 0 {
		s, err := seal(key, creds.ClientKeyPEM)
		if err != nil {
			return fmt.Errorf("sealing client key: %w", err)
		}
		sealedKey = sql.NullString{String: s, Valid: true}
	}
	_, err = db.Exec(`
		INSERT INTO provider_credentials (connection_id, provider_name, access_token, provider_item_id, client_cert, client_key)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(connection_id) DO UPDATE SET
			provider_name = excluded.provider_name, access_token = excluded.access_token,
			provider_item_id = excluded.provider_item_id,
			client_cert = excluded.client_cert, client_key = excluded.client_key`,
		connectionID, creds.ProviderName, sealedToken, creds.ItemID, sealedCert, sealedKey,
	)
	if err != nil {
		return fmt.Errorf("storing credentials for connection %d: %w", connectionID, err)
	}
	return nil
}

// GetCredentials loads and unseals the credentials of a connection.
func GetCredentials(db *sql.DB, key []byte, connectionID int64) (*models.ProviderCredentials, error) {
	row := db.QueryRow(`
		SELECT provider_name, access_token, provider_item_id, client_cert, client_key
		FROM provider_credentials WHERE connection_id = ?`, connectionID)
	var creds models.ProviderCredentials
	var sealedToken string
	var sealedCert, sealedKey sql.NullString
	err := row.Scan(&creds.ProviderName, &sealedToken, &creds.ItemID, &sealedCert, &sealedKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("loading credentials for connection %d: %w", connectionID, err)
	}
	token, err := open(key, sealedToken)
	if err != nil {
		return nil, fmt.Errorf("unsealing access token for connection %d: %w", connectionID, err)
	}
	creds.AccessToken = string(token)
	if sealedCert.Valid {
		if creds.ClientCertPEM, err = open(key, sealedCert.String); err != nil {
			return nil, fmt.Errorf("unsealing client certificate for connection %d: %w", connectionID, err)
		}
	}
	if sealedKey.Valid {
		if creds.ClientKeyPEM, err = open(key, sealedKey.String); err != nil {
			return nil, fmt.Errorf("unsealing client key for connection %d: %w", connectionID, err)
		}
	}
	return &creds, nil
}

// DeleteCredentialsForConnection removes the credential row on disconnect.
func DeleteCredentialsForConnection(db *sql.DB, connectionID int64) error {
	_, err := db.Exec("DELETE FROM provider_credentials WHERE connection_id = ?", connectionID)
	return err
}

func seal(key, plaintext []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func open(key []byte, encoded string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("sealed credential too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
