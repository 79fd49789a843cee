package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"styledecor/apperr"
)

// Session is the processor's view of a hosted checkout.
type Session struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	TransactionID string            `json:"payment_intent"`
	AmountTotal   float64           `json:"amount_total"`
	Currency      string            `json:"currency"`
	PaymentStatus string            `json:"payment_status"` // paid | unpaid
	Metadata      map[string]string `json:"metadata"`
}

// SessionParams describes the checkout to create. Metadata carries the
// bookingId the reconciler needs to find its way back to the ledger.
type SessionParams struct {
	BookingID     string
	ServiceName   string
	CustomerEmail string
	Amount        float64
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// Client talks to the external checkout processor.
type Client struct {
	baseURL   string
	secretKey string
	hc        *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		hc:        &http.Client{Timeout: timeout},
	}
}

// CreateSession asks the processor for a hosted checkout URL.
func (c *Client) CreateSession(ctx context.Context, p SessionParams) (*Session, error) {
	body := map[string]any{
		"amount_total":   p.Amount,
		"currency":       p.Currency,
		"customer_email": p.CustomerEmail,
		"success_url":    p.SuccessURL,
		"cancel_url":     p.CancelURL,
		"metadata": map[string]string{
			"bookingId":   p.BookingID,
			"serviceName": p.ServiceName,
		},
	}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/checkout/sessions", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession retrieves the terminal state of a checkout session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodGet, "/checkout/sessions/"+sessionID, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return apperr.Ef(apperr.ErrUpstreamUnavailable, "checkout processor unreachable: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperr.E(apperr.ErrNotFound, "checkout session not found")
	case resp.StatusCode >= 400:
		return apperr.Ef(apperr.ErrUpstreamUnavailable, "checkout processor returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode processor response: %w", err)
	}
	return nil
}
