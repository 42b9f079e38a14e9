package brains

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ItemRecord is one catalog row as the Brains ERP feed serves it. Decimal
// fields tolerate both JSON numbers and quoted strings; Brains emits either
// depending on its export version.
type ItemRecord struct {
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"image_url"`
}

// AccountRecord is one customer account row from the Brains feed. Phone
// numbers may hide inside the free-text description rather than the phone
// field.
type AccountRecord struct {
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
	Description string          `json:"description"`
	Balance     decimal.Decimal `json:"balance"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// Config holds Brains client configuration
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is the HTTP client for the Brains ERP feed endpoints
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a new Brains client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// FetchItems retrieves the full catalog feed
func (c *Client) FetchItems(ctx context.Context) ([]ItemRecord, error) {
	var items []ItemRecord
	if err := c.getJSON(ctx, "/api/items", &items); err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}
	return items, nil
}

// FetchAccounts retrieves the full customer account feed
func (c *Client) FetchAccounts(ctx context.Context) ([]AccountRecord, error) {
	var accounts []AccountRecord
	if err := c.getJSON(ctx, "/api/accounts", &accounts); err != nil {
		return nil, fmt.Errorf("fetch accounts: %w", err)
	}
	return accounts, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
