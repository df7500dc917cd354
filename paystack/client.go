package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Envislon1/create-joy/logging"
)

const DefaultBaseURL = "https://api.paystack.co"

// TxStatusSuccess is the gateway's status for a fully paid transaction.
// Other values seen in practice: "failed", "abandoned", "ongoing".
const TxStatusSuccess = "success"

// ErrTransactionNotFound means the gateway has no record of the reference.
var ErrTransactionNotFound = errors.New("paystack: transaction not found")

// Transaction is the gateway's authoritative record of a payment attempt.
// Amount is in the smallest currency subunit (kobo for NGN).
type Transaction struct {
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	GatewayResponse string `json:"gateway_response"`
	Channel         string `json:"channel"`
	PaidAt          string `json:"paid_at"`
}

// Succeeded reports whether the gateway confirmed full payment.
func (t *Transaction) Succeeded() bool {
	return t.Status == TxStatusSuccess
}

// Verifier re-checks a payment reference against the gateway's own record.
// The settlement engine never trusts caller-supplied amounts.
type Verifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*Transaction, error)
}

type Client struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

func NewClient(secretKey string) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		SecretKey:  secretKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type verifyEnvelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    Transaction `json:"data"`
}

func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", c.BaseURL, url.PathEscape(reference))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("paystack: building verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logging.Log.Errorf("PAYSTACK: verify call for %s failed: %v", reference, err)
		return nil, fmt.Errorf("paystack: verify request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTransactionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		logging.Log.Errorf("PAYSTACK: verify for %s returned HTTP %d", reference, resp.StatusCode)
		return nil, fmt.Errorf("paystack: verify returned HTTP %d", resp.StatusCode)
	}

	var envelope verifyEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("paystack: decoding verify response: %w", err)
	}
	if !envelope.Status {
		logging.Log.Warnf("PAYSTACK: verify for %s rejected: %s", reference, envelope.Message)
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, envelope.Message)
	}

	return &envelope.Data, nil
}
