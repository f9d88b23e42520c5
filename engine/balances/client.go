package balances

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/emberwallet/swapcore/engine/currency"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "balances").Logger()
}

// TokenBalanceRecord is one token row from the balance data source. String
// fields are decimal strings; absent fields stay empty and the reader skips
// incomplete records.
type TokenBalanceRecord struct {
	Address      string `json:"address"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Decimals     int32  `json:"decimals"`
	Quantity     string `json:"quantity"`
	BalanceUSD   string `json:"balanceUSD"`
	QuoteRate    string `json:"quoteRate"`
	QuoteRate24h string `json:"quoteRate24h"`
}

// Client queries the balance data source over HTTP. The transport behind the
// API (GraphQL, REST, an indexer) is the source's concern, not this
// pipeline's.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a balance client.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("invalid balance API URL %q", baseURL)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxRetries: 2,
		retryDelay: 500 * time.Millisecond,
	}, nil
}

// FetchPortfolio returns the token balances for (chain, owner). The
// ignoreSmallBalances flag is forwarded to the source, which decides what
// "small" means.
func (c *Client) FetchPortfolio(ctx context.Context, chain currency.ChainID, owner common.Address, ignoreSmallBalances bool) ([]TokenBalanceRecord, error) {
	endpoint := fmt.Sprintf("%s/v1/balances?chainId=%d&address=%s&ignoreSmallBalances=%s",
		c.baseURL, chain, owner.Hex(), strconv.FormatBool(ignoreSmallBalances))

	var parsed struct {
		Balances []TokenBalanceRecord `json:"balances"`
	}
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, fmt.Errorf("portfolio fetch: %w", err)
	}
	return parsed.Balances, nil
}

// FetchNativeBalance returns the owner's native-currency balance on a chain
// as a decimal quantity.
func (c *Client) FetchNativeBalance(ctx context.Context, chain currency.ChainID, owner common.Address) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v1/native-balance?chainId=%d&address=%s", c.baseURL, chain, owner.Hex())

	var parsed struct {
		Quantity string `json:"quantity"`
	}
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return decimal.Decimal{}, fmt.Errorf("native balance fetch: %w", err)
	}
	quantity, err := decimal.NewFromString(parsed.Quantity)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("malformed native balance %q: %w", parsed.Quantity, err)
	}
	return quantity, nil
}

// getJSON performs a GET with doubling-delay retries and decodes the body.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err := c.getOnce(ctx, endpoint, out); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) getOnce(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("balance API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return json.Unmarshal(raw, out)
}
