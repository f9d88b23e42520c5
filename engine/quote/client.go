package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/emberwallet/swapcore/engine/currency"
	"github.com/emberwallet/swapcore/engine/swap"
)

// ClientConfig controls retry and failover behavior of the HTTP quoting
// client.
type ClientConfig struct {
	// MaxRetries is the number of times to retry a failed request on the
	// current endpoint.
	MaxRetries int
	// RetryDelay is the initial delay between retries (doubles each retry).
	RetryDelay time.Duration
	// HealthCheckInterval is how often to probe whether the primary endpoint
	// is back up after a failover.
	HealthCheckInterval time.Duration
	// Timeout is the HTTP request timeout.
	Timeout time.Duration
	// SlippageBps is attached to resolved trades; zero means the default
	// tolerance.
	SlippageBps int64
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MaxRetries:          2,
		RetryDelay:          500 * time.Millisecond,
		HealthCheckInterval: 30 * time.Second,
		Timeout:             10 * time.Second,
	}
}

// Client queries an external quoting API over HTTP. It maintains a primary
// endpoint and can automatically switch to backup endpoints when the primary
// is unavailable.
type Client struct {
	httpClient *http.Client
	primaryURL string
	backupURLs []string
	currentURL string
	mu         sync.RWMutex
	health     *healthChecker
	config     ClientConfig
}

// healthChecker periodically checks if the primary endpoint is healthy again
// after the client failed over to a backup.
type healthChecker struct {
	client    *Client
	stopCh    chan struct{}
	stoppedCh chan struct{}
	running   bool
	mu        sync.Mutex
}

// NewClient creates a quoting client. Invalid backup URLs are skipped with a
// warning; an invalid primary is an error.
func NewClient(primaryURL string, backupURLs []string, config ClientConfig) (*Client, error) {
	if _, err := url.Parse(primaryURL); err != nil || primaryURL == "" {
		return nil, fmt.Errorf("invalid primary quote API URL %q", primaryURL)
	}

	validBackups := make([]string, 0, len(backupURLs))
	for _, u := range backupURLs {
		if _, err := url.Parse(u); err != nil || u == "" {
			log.Warn().Str("url", u).Msg("Invalid backup URL, skipping")
			continue
		}
		validBackups = append(validBackups, u)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		primaryURL: strings.TrimRight(primaryURL, "/"),
		backupURLs: validBackups,
		currentURL: strings.TrimRight(primaryURL, "/"),
		config:     config,
	}

	if len(validBackups) > 0 {
		c.startHealthChecker()
	}

	log.Info().
		Str("primary", c.primaryURL).
		Int("backups", len(validBackups)).
		Msg("Quote client initialized")
	return c, nil
}

func (c *Client) startHealthChecker() {
	c.health = &healthChecker{
		client:    c,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	c.health.mu.Lock()
	c.health.running = true
	c.health.mu.Unlock()
	go c.health.run(c.config.HealthCheckInterval)
}

func (h *healthChecker) run(interval time.Duration) {
	defer close(h.stoppedCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.client.checkPrimary()
		}
	}
}

// checkPrimary probes the primary endpoint and switches back when healthy.
func (c *Client) checkPrimary() {
	c.mu.RLock()
	onPrimary := c.currentURL == c.primaryURL
	c.mu.RUnlock()
	if onPrimary {
		return
	}

	resp, err := c.httpClient.Get(c.primaryURL + "/health")
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		c.mu.Lock()
		c.currentURL = c.primaryURL
		c.mu.Unlock()
		log.Info().Str("url", c.primaryURL).Msg("Primary quote endpoint healthy again, switching back")
	}
}

// Close stops the background health checker.
func (c *Client) Close() {
	if c.health == nil {
		return
	}
	c.health.mu.Lock()
	if c.health.running {
		c.health.running = false
		close(c.health.stopCh)
	}
	c.health.mu.Unlock()
	<-c.health.stoppedCh
}

// failover rotates to the next available endpoint.
func (c *Client) failover() {
	c.mu.Lock()
	defer c.mu.Unlock()

	candidates := append([]string{c.primaryURL}, c.backupURLs...)
	for i, u := range candidates {
		if u == c.currentURL {
			next := candidates[(i+1)%len(candidates)]
			log.Warn().Str("from", c.currentURL).Str("to", next).Msg("Quote endpoint failover")
			c.currentURL = next
			return
		}
	}
}

func (c *Client) endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentURL
}

// quoteRequestBody is the wire request to the quoting API.
type quoteRequestBody struct {
	ChainID   uint64 `json:"chainId"`
	TokenIn   string `json:"tokenIn"`
	TokenOut  string `json:"tokenOut"`
	Amount    string `json:"amount"`
	TradeType string `json:"tradeType"`
}

// quoteResponseBody is the wire response: the derived-side amount plus the
// prepared execution parameters.
type quoteResponseBody struct {
	QuotedAmount   string        `json:"quotedAmount"`
	Router         string        `json:"router"`
	Calldata       hexutil.Bytes `json:"calldata"`
	Value          string        `json:"value"`
	GasUseEstimate uint64        `json:"gasUseEstimate"`
	Error          string        `json:"error,omitempty"`
}

// FetchQuote implements Source. It retries on the current endpoint with a
// doubling delay, then fails over to the next endpoint and tries once more.
func (c *Client) FetchQuote(ctx context.Context, req Request) (*swap.Trade, error) {
	body, err := json.Marshal(quoteRequestBody{
		ChainID:   uint64(req.Amount.Currency.ChainID),
		TokenIn:   tokenParam(inputCurrency(req)),
		TokenOut:  tokenParam(outputCurrency(req)),
		Amount:    req.Amount.Raw().String(),
		TradeType: req.Type.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode quote request: %w", err)
	}

	var lastErr error
	delay := c.config.RetryDelay

	for attempt := 0; attempt <= c.config.MaxRetries+1; attempt++ {
		if attempt > 0 {
			if attempt == c.config.MaxRetries+1 {
				c.failover()
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		trade, err := c.fetchOnce(ctx, body, req)
		if err == nil {
			return trade, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("quote request failed after %d attempts: %w", c.config.MaxRetries+2, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, body []byte, req Request) (*swap.Trade, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint()+"/v1/quote", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed quoteResponseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("quote API error: %s", parsed.Error)
	}

	return c.buildTrade(req, &parsed)
}

// buildTrade assembles a Trade from the request currencies and the quoted
// derived-side amount.
func (c *Client) buildTrade(req Request, resp *quoteResponseBody) (*swap.Trade, error) {
	quotedRaw, ok := new(big.Int).SetString(resp.QuotedAmount, 10)
	if !ok {
		return nil, fmt.Errorf("malformed quoted amount %q", resp.QuotedAmount)
	}
	if !common.IsHexAddress(resp.Router) {
		return nil, fmt.Errorf("malformed router address %q", resp.Router)
	}

	value := big.NewInt(0)
	if resp.Value != "" {
		if _, ok := value.SetString(resp.Value, 10); !ok {
			return nil, fmt.Errorf("malformed transaction value %q", resp.Value)
		}
	}

	quoted := currency.AmountFromRaw(req.Other, quotedRaw)
	trade := &swap.Trade{
		Type:        req.Type,
		SlippageBps: c.config.SlippageBps,
		Quote: &swap.ExecutionQuote{
			Amount:           req.Amount.Raw(),
			MethodParameters: &swap.MethodParameters{Calldata: resp.Calldata, Value: value},
			Router:           common.HexToAddress(resp.Router),
			GasUseEstimate:   resp.GasUseEstimate,
		},
	}
	if req.Type == swap.ExactInput {
		trade.InputAmount = req.Amount
		trade.OutputAmount = quoted
	} else {
		trade.InputAmount = quoted
		trade.OutputAmount = req.Amount
	}
	return trade, nil
}

func inputCurrency(req Request) *currency.Currency {
	if req.Type == swap.ExactInput {
		return req.Amount.Currency
	}
	return req.Other
}

func outputCurrency(req Request) *currency.Currency {
	if req.Type == swap.ExactInput {
		return req.Other
	}
	return req.Amount.Currency
}

// tokenParam encodes a currency for the wire: "native" for the chain native
// asset, the hex address otherwise.
func tokenParam(c *currency.Currency) string {
	if c.Native {
		return "native"
	}
	return c.Address.Hex()
}
