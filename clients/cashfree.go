package clients

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferRequest is one payout line handed to the payout provider.
type TransferRequest struct {
	TransferID    string
	ProviderID    uuid.UUID
	Amount        decimal.Decimal
	Name          string
	AccountNumber string
	IFSC          string
	UPIID         string
	Remarks       string
}

// TransferInitiator starts a bank or UPI transfer and returns the provider's reference.
type TransferInitiator interface {
	InitiateTransfer(ctx context.Context, req TransferRequest) (string, error)
}

// CashfreePayoutClient talks to the Cashfree payouts REST API.
type CashfreePayoutClient struct {
	ClientID      string
	ClientSecret  string
	BaseURL       string
	WebhookSecret string
	HttpClient    *http.Client
}

func NewCashfreePayoutClient(clientID, clientSecret, baseURL, webhookSecret string) (*CashfreePayoutClient, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("payout: required Cashfree credentials not set")
	}
	if baseURL == "" {
		baseURL = "https://sandbox.cashfree.com/payout/v1"
	}
	return &CashfreePayoutClient{
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		BaseURL:       baseURL,
		WebhookSecret: webhookSecret,
		HttpClient:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

var _ TransferInitiator = (*CashfreePayoutClient)(nil)

func (c *CashfreePayoutClient) makeRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Client-Id", c.ClientID)
	req.Header.Set("X-Client-Secret", c.ClientSecret)

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	return resp, nil
}

func (c *CashfreePayoutClient) InitiateTransfer(ctx context.Context, tr TransferRequest) (string, error) {
	payload := map[string]interface{}{
		"transferId": tr.TransferID,
		"amount":     tr.Amount.StringFixed(2),
		"remarks":    tr.Remarks,
	}
	if tr.UPIID != "" {
		payload["transferMode"] = "upi"
		payload["beneDetails"] = map[string]interface{}{"name": tr.Name, "vpa": tr.UPIID}
	} else {
		payload["transferMode"] = "banktransfer"
		payload["beneDetails"] = map[string]interface{}{
			"name":        tr.Name,
			"bankAccount": tr.AccountNumber,
			"ifsc":        tr.IFSC,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transfer: %w", err)
	}

	resp, err := c.makeRequest(ctx, http.MethodPost, "/directTransfer", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transfer %s rejected [%d]: %s", tr.TransferID, resp.StatusCode, string(raw))
	}

	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			ReferenceID string `json:"referenceId"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode transfer response: %w", err)
	}
	if out.Status == "ERROR" {
		return "", fmt.Errorf("transfer %s rejected: %s", tr.TransferID, out.Message)
	}
	if out.Data.ReferenceID == "" {
		return tr.TransferID, nil
	}
	return out.Data.ReferenceID, nil
}

// VerifyWebhookSignature checks a base64 HMAC-SHA256 of timestamp+body.
func (c *CashfreePayoutClient) VerifyWebhookSignature(body []byte, timestamp, signature string) bool {
	if c.WebhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
