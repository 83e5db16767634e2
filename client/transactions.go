package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when the server reports that nothing matched the query.
var ErrNotFound = errors.New("not found")

// Transaction is a full transaction record as returned by the query service.
type Transaction struct {
	Signature       string          `json:"signature"`
	Timestamp       time.Time       `json:"timestamp"`
	Slot            int64           `json:"slot"`
	Fee             decimal.Decimal `json:"fee"`
	FeePayer        string          `json:"fee_payer"`
	TransactionType string          `json:"transaction_type"`
	Transaction     json.RawMessage `json:"transaction"`
}

// LatestTransaction is the narrow projection returned by the latest listing.
type LatestTransaction struct {
	Timestamp time.Time `json:"timestamp"`
	Signature string    `json:"signature"`
	Slot      int64     `json:"slot"`
}

// Client is the HTTP client for the soltx query service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new query service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// GetTransaction fetches a single transaction by signature.
// The server answers an unknown signature with a null body, which is returned as (nil, nil).
func (c *Client) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	u := fmt.Sprintf("%s/transactions/by-id/%s", c.baseURL, url.PathEscape(signature))

	var txn *Transaction
	if err := c.get(ctx, u, &txn); err != nil {
		return nil, err
	}

	if txn == nil {
		c.logger.Debug("transaction not found", "signature", signature)
	}
	return txn, nil
}

// ListTransactionsByDate fetches every transaction recorded on the given UTC calendar day.
// A day with no transactions returns an error wrapping ErrNotFound.
func (c *Client) ListTransactionsByDate(ctx context.Context, date time.Time) ([]*Transaction, error) {
	day := date.UTC().Format("2006-01-02")
	u := fmt.Sprintf("%s/transactions/by-date/%s", c.baseURL, day)

	var txns []*Transaction
	if err := c.get(ctx, u, &txns); err != nil {
		return nil, err
	}

	c.logger.Debug("listed transactions by date", "date", day, "count", len(txns))
	return txns, nil
}

// ListLatestTransactions fetches the most recent transactions, newest first.
// A count of zero or less leaves the choice to the server default.
func (c *Client) ListLatestTransactions(ctx context.Context, count int) ([]*LatestTransaction, error) {
	u, err := url.Parse(c.baseURL + "/transactions/latest")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if count > 0 {
		q := u.Query()
		q.Set("count", strconv.Itoa(count))
		u.RawQuery = q.Encode()
	}

	txns := []*LatestTransaction{}
	if err := c.get(ctx, u.String(), &txns); err != nil {
		return nil, err
	}

	c.logger.Debug("listed latest transactions", "count", count, "returned", len(txns))
	return txns, nil
}

func (c *Client) get(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	msg := string(body)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		msg = errResp.Error
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}
	return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, msg)
}
