// backend/src/providers/plaid.go
package providers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/centavo/backend/src/logger"
	"github.com/username/centavo/backend/src/models"
	"github.com/username/centavo/backend/src/utils"
	"golang.org/x/net/publicsuffix"
)

const plaidProviderName = "plaid"

// --- API Response Structs ---

type plaidLinkTokenResponse struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
}

type plaidExchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

type plaidAccountsResponse struct {
	Accounts []struct {
		AccountID string `json:"account_id"`
		Name      string `json:"name"`
		Type      string `json:"type"`
		Subtype   string `json:"subtype"`
		Balances  struct {
			Current         json.Number `json:"current"`
			ISOCurrencyCode string      `json:"iso_currency_code"`
		} `json:"balances"`
	} `json:"accounts"`
}

type plaidTransactionsResponse struct {
	Transactions []struct {
		TransactionID           string      `json:"transaction_id"`
		AccountID               string      `json:"account_id"`
		Amount                  json.Number `json:"amount"`
		Date                    string      `json:"date"`
		MerchantName            string      `json:"merchant_name"`
		Name                    string      `json:"name"`
		PaymentChannel          string      `json:"payment_channel"`
		Pending                 bool        `json:"pending"`
		PersonalFinanceCategory struct {
			Primary         string `json:"primary"`
			Detailed        string `json:"detailed"`
			ConfidenceLevel string `json:"confidence_level"`
		} `json:"personal_finance_category"`
	} `json:"transactions"`
	TotalTransactions int `json:"total_transactions"`
}

type plaidItemResponse struct {
	Item struct {
		ItemID        string `json:"item_id"`
		InstitutionID string `json:"institution_id"`
	} `json:"item"`
}

type plaidInstitutionResponse struct {
	Institution struct {
		InstitutionID string `json:"institution_id"`
		Name          string `json:"name"`
		URL           string `json:"url"`
		Logo          string `json:"logo"`
	} `json:"institution"`
}

// --- Provider Implementation ---

type plaidClient struct {
	baseURL      string
	clientID     string
	secret       string
	httpClient   http.Client
	institutions *cache.Cache
}

// NewPlaidProvider builds the Plaid-style provider client. The API filters
// transactions server-side by date, so GetTransactions passes the window
// through directly.
func NewPlaidProvider(baseURL, clientID, secret string) Provider {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar for plaid client", "error", err)
	}
	return &plaidClient{
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
		httpClient: http.Client{
			Jar:     jar,
			Timeout: 20 * time.Second,
		},
		institutions: cache.New(6*time.Hour, 12*time.Hour),
	}
}

func (c *plaidClient) Name() string { return plaidProviderName }

func (c *plaidClient) post(ctx context.Context, path string, payload map[string]interface{}, out interface{}) error {
	payload["client_id"] = c.clientID
	payload["secret"] = c.secret
	body, err := json.Marshal(payload)
	if err != nil {
		return &RequestError{Provider: plaidProviderName, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &RequestError{Provider: plaidProviderName, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Provider: plaidProviderName, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RequestError{
			Provider: plaidProviderName,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s returned %s: %s", path, resp.Status, respBody),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Provider: plaidProviderName, Err: fmt.Errorf("decoding %s response: %w", path, err)}
	}
	return nil
}

func (c *plaidClient) CreateLinkToken(ctx context.Context, userID int64) (string, error) {
	var res plaidLinkTokenResponse
	err := c.post(ctx, "/link/token/create", map[string]interface{}{
		"user":          map[string]string{"client_user_id": fmt.Sprintf("%d", userID)},
		"client_name":   "Centavo",
		"products":      []string{"transactions"},
		"country_codes": []string{"PT", "ES", "US"},
		"language":      "en",
	}, &res)
	if err != nil {
		return "", err
	}
	return res.LinkToken, nil
}

func (c *plaidClient) ExchangePublicToken(ctx context.Context, publicToken string) (*models.ProviderCredentials, error) {
	var res plaidExchangeResponse
	err := c.post(ctx, "/item/public_token/exchange", map[string]interface{}{
		"public_token": publicToken,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &models.ProviderCredentials{
		ProviderName: plaidProviderName,
		AccessToken:  res.AccessToken,
		ItemID:       res.ItemID,
	}, nil
}

func (c *plaidClient) GetAccounts(ctx context.Context, creds *models.ProviderCredentials) ([]models.Account, error) {
	var res plaidAccountsResponse
	err := c.post(ctx, "/accounts/get", map[string]interface{}{
		"access_token": creds.AccessToken,
	}, &res)
	if err != nil {
		return nil, err
	}
	accounts := make([]models.Account, 0, len(res.Accounts))
	for _, a := range res.Accounts {
		acct := models.Account{
			ProviderAccountID: a.AccountID,
			Name:              a.Name,
			Category:          models.AccountCategory(a.Type),
			Subtype:           a.Subtype,
			Currency:          a.Balances.ISOCurrencyCode,
		}
		if a.Balances.Current != "" {
			bal, err := decimal.NewFromString(a.Balances.Current.String())
			if err == nil {
				// Liabilities are reported as positive owed amounts; the
				// ledger stores them signed.
				if acct.Category == models.CategoryCredit || acct.Category == models.CategoryLoan {
					bal = bal.Neg()
				}
				acct.CurrentBalance = decimal.NullDecimal{Decimal: bal, Valid: true}
			}
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

func (c *plaidClient) GetTransactions(ctx context.Context, creds *models.ProviderCredentials, start, end time.Time) ([]models.Transaction, error) {
	var res plaidTransactionsResponse
	err := c.post(ctx, "/transactions/get", map[string]interface{}{
		"access_token": creds.AccessToken,
		"start_date":   utils.FormatDay(start),
		"end_date":     utils.FormatDay(end),
		"options":      map[string]interface{}{"count": 500},
	}, &res)
	if err != nil {
		return nil, err
	}
	txs := make([]models.Transaction, 0, len(res.Transactions))
	for _, t := range res.Transactions {
		date, err := utils.ParseDay(t.Date)
		if err != nil {
			logger.L.Warn("Skipping plaid transaction with malformed date", "transactionID", t.TransactionID, "date", t.Date)
			continue
		}
		amount, err := decimal.NewFromString(t.Amount.String())
		if err != nil {
			logger.L.Warn("Skipping plaid transaction with malformed amount", "transactionID", t.TransactionID)
			continue
		}
		merchant := t.MerchantName
		if merchant == "" {
			merchant = t.Name
		}
		txs = append(txs, models.Transaction{
			ProviderTransactionID: t.TransactionID,
			ProviderAccountID:     t.AccountID,
			// The API reports outflows as positive; the ledger stores money
			// leaving an account as negative.
			Amount:             amount.Neg(),
			Date:               date,
			MerchantName:       merchant,
			CategoryPrimary:    t.PersonalFinanceCategory.Primary,
			CategoryDetailed:   t.PersonalFinanceCategory.Detailed,
			CategoryConfidence: t.PersonalFinanceCategory.ConfidenceLevel,
			PaymentChannel:     t.PaymentChannel,
			Pending:            t.Pending,
		})
	}
	return txs, nil
}

func (c *plaidClient) GetInstitution(ctx context.Context, creds *models.ProviderCredentials) (*models.InstitutionInfo, error) {
	cacheKey := institutionCacheKey(creds.AccessToken)
	if cached, found := c.institutions.Get(cacheKey); found {
		info := cached.(models.InstitutionInfo)
		return &info, nil
	}
	var itemRes plaidItemResponse
	if err := c.post(ctx, "/item/get", map[string]interface{}{"access_token": creds.AccessToken}, &itemRes); err != nil {
		return nil, err
	}
	var instRes plaidInstitutionResponse
	err := c.post(ctx, "/institutions/get_by_id", map[string]interface{}{
		"institution_id": itemRes.Item.InstitutionID,
		"country_codes":  []string{"PT", "ES", "US"},
	}, &instRes)
	if err != nil {
		return nil, err
	}
	info := models.InstitutionInfo{
		ID:   instRes.Institution.InstitutionID,
		Name: instRes.Institution.Name,
		URL:  instRes.Institution.URL,
		Logo: instRes.Institution.Logo,
	}
	c.institutions.Set(cacheKey, info, cache.DefaultExpiration)
	return &info, nil
}

// institutionCacheKey hashes the access token so raw credential material
// never sits in cache keys.
func institutionCacheKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return "inst_" + hex.EncodeToString(sum[:8])
}
