package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/facture/backend/internal/domain/facture"
)

// maxResponseSize is the maximum allowed response size from the billing API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// ErrBillingUnavailable indicates the billing API could not be reached
var ErrBillingUnavailable = errors.New("billing: api unavailable")

// ErrBillingRequestFailed indicates the billing API rejected the request
var ErrBillingRequestFailed = errors.New("billing: request failed")

// factureFields is the field projection requested from the billing API.
// Nested client and line item records come back expanded.
var factureFields = strings.Join([]string{
	"id",
	"status",
	"amountNet",
	"amountGross",
	"currency",
	"paymentMode",
	"dateService",
	"dateIssued",
	"client.*",
	"lineItems.*",
}, ",")

// Config holds the billing API connection settings
type Config struct {
	APIURL  string
	Token   string
	Timeout time.Duration
}

// Client fetches facture records from the billing API
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a billing API client with the given configuration
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// FetchFactures retrieves facture records from the billing API.
// With a non-empty id it fetches that single facture; otherwise it fetches
// every facture whose status is A_PAYER.
func (c *Client) FetchFactures(ctx context.Context, id string) ([]facture.Facture, error) {
	params := url.Values{}
	if id != "" {
		params.Set("filter[id][_eq]", id)
	} else {
		params.Set("filter[status][_eq]", facture.StatusAwaitingPayment)
	}
	params.Set("fields", factureFields)

	endpoint := strings.TrimRight(c.config.APIURL, "/") + "/items/Factures?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("billing: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("billing: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrBillingRequestFailed, resp.StatusCode)
	}

	var envelope struct {
		Data []facture.Facture `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("billing: failed to decode response: %w", err)
	}

	return envelope.Data, nil
}
