package strike

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
)

// Client is a bearer-token-authenticated HTTP client for the Strike REST API.
// All calls carry the client's bounded timeout; a stalled upstream surfaces as
// apperrors.ErrProviderUnavailable instead of hanging the request.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Strike API client for the given base URL and API key.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal strike request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build strike request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &urlErr) && urlErr.Timeout()) {
			return fmt.Errorf("strike request timed out: %w", apperrors.ErrProviderUnavailable)
		}
		return fmt.Errorf("strike request failed: %w", apperrors.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fallthrough to decode
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("strike resource %s: %w", path, apperrors.ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("strike rejected credential (status %d): %w", resp.StatusCode, apperrors.ErrCredentialUnavailable)
	case resp.StatusCode >= 500:
		return fmt.Errorf("strike returned status %d: %w", resp.StatusCode, apperrors.ErrProviderUnavailable)
	default:
		return apperrors.NewAppError(resp.StatusCode, fmt.Sprintf("strike returned status %d", resp.StatusCode), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode strike response: %w", err)
	}
	return nil
}

// IssueInvoice issues an invoice on the authenticated account.
func (c *Client) IssueInvoice(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	var invoice Invoice
	if err := c.do(ctx, http.MethodPost, "/invoices", req, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// IssueInvoiceForReceiver issues an invoice on behalf of another Strike handle.
func (c *Client) IssueInvoiceForReceiver(ctx context.Context, handle string, req CreateInvoiceRequest) (*Invoice, error) {
	var invoice Invoice
	if err := c.do(ctx, http.MethodPost, "/invoices/handle/"+url.PathEscape(handle), req, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// CreateQuote creates a Lightning quote for an existing invoice.
func (c *Client) CreateQuote(ctx context.Context, invoiceID string) (*Quote, error) {
	var quote Quote
	if err := c.do(ctx, http.MethodPost, "/invoices/"+url.PathEscape(invoiceID)+"/quote", nil, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetInvoice fetches an invoice by id.
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	var invoice Invoice
	if err := c.do(ctx, http.MethodGet, "/invoices/"+url.PathEscape(invoiceID), nil, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// CancelInvoice cancels an unpaid invoice.
func (c *Client) CancelInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	var invoice Invoice
	if err := c.do(ctx, http.MethodPatch, "/invoices/"+url.PathEscape(invoiceID)+"/cancel", nil, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FetchProfileByHandle fetches the public account profile for a handle.
func (c *Client) FetchProfileByHandle(ctx context.Context, handle string) (*AccountProfile, error) {
	var profile AccountProfile
	if err := c.do(ctx, http.MethodGet, "/accounts/handle/"+url.PathEscape(handle)+"/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FetchProfileByID fetches the public account profile for a Strike account id.
func (c *Client) FetchProfileByID(ctx context.Context, id string) (*AccountProfile, error) {
	var profile AccountProfile
	if err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(id)+"/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateReceiveRequest creates a receive request on the authenticated account.
func (c *Client) CreateReceiveRequest(ctx context.Context, req CreateReceiveRequest) (*ReceiveRequest, error) {
	var rr ReceiveRequest
	if err := c.do(ctx, http.MethodPost, "/receive-requests", req, &rr); err != nil {
		return nil, err
	}
	return &rr, nil
}
