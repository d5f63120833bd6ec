// Package gateway implements the external payment provider client. The
// provider exposes a Snap-style API: the server creates a session for an
// amount and receives a token plus a redirect URL for the customer.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/kawanestudio/storefront/internal/domain/payment"
)

var _ payment.Gateway = (*Client)(nil)

// Client talks to the payment provider over HTTP.
type Client struct {
	http *resty.Client
}

// Config holds the provider endpoint and credentials.
type Config struct {
	BaseURL   string
	ServerKey string
	Timeout   time.Duration
}

// NewClient creates a provider client. The server key is sent as basic auth
// username with an empty password, per the provider's convention.
func NewClient(cfg Config) *Client {
	httpc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.ServerKey, "").
		SetHeader("Content-Type", "application/json")
	return &Client{http: httpc}
}

type sessionRequest struct {
	TransactionDetails struct {
		OrderID     string `json:"order_id"`
		GrossAmount string `json:"gross_amount"`
	} `json:"transaction_details"`
}

type sessionResponse struct {
	Token        string `json:"token"`
	RedirectURL  string `json:"redirect_url"`
	ErrorMessage string `json:"error_message"`
}

// CreateSession opens a checkout session for the given order and amount.
func (c *Client) CreateSession(ctx context.Context, orderID string, amount decimal.Decimal) (*payment.Session, error) {
	var req sessionRequest
	req.TransactionDetails.OrderID = orderID
	req.TransactionDetails.GrossAmount = amount.StringFixed(2)

	var res sessionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&res).
		SetError(&res).
		Post("/snap/v1/transactions")
	if err != nil {
		return nil, fmt.Errorf("creating payment session for order %q: %w", orderID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("payment provider rejected order %q: %s (%s)",
			orderID, resp.Status(), res.ErrorMessage)
	}

	return &payment.Session{
		Token:       res.Token,
		RedirectURL: res.RedirectURL,
	}, nil
}
