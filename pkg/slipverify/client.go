package slipverify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/naritchaphan/talad-backend/pkg/config"
	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
)

const (
	requestBodyReadLimit int64 = 1024
)

var (
	errAPIKeyRequired  = errors.New("slip verification api key is required")
	errBaseURLRequired = errors.New("slip verification base url is required")
)

// Client wraps the bank-slip verification API used to confirm PromptPay
// transfers against uploaded payment slips.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the slip verification client from config.
func NewClient(cfg config.SlipVerifyConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// VerifyRequest describes the slip submitted for verification. Image is the
// base64-encoded slip; QRPayload takes precedence when both are set.
type VerifyRequest struct {
	QRPayload string `json:"payload,omitempty"`
	Image     string `json:"image,omitempty"`
}

// SlipResult is the normalized verification outcome.
type SlipResult struct {
	TransactionRef string
	Amount         decimal.Decimal
	SenderBank     string
	SenderName     string
	ReceiverID     string
	TransferredAt  time.Time
}

// Verify submits a slip to the verification provider and returns the decoded
// transfer details. A non-2xx status or an unreadable payload surfaces as a
// dependency error so callers fall back to manual review.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (*SlipResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "slip verification client not configured")
	}
	if strings.TrimSpace(req.QRPayload) == "" && strings.TrimSpace(req.Image) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slip payload or image is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal verify request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build verify request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute verify request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slip could not be read: "+strings.TrimSpace(string(msg)))
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "verify request failed")
	}

	var apiResp struct {
		Data struct {
			TransRef string `json:"transRef"`
			Amount   struct {
				Amount decimal.Decimal `json:"amount"`
			} `json:"amount"`
			Sender struct {
				Bank struct {
					Name string `json:"name"`
				} `json:"bank"`
				Account struct {
					Name struct {
						TH string `json:"th"`
						EN string `json:"en"`
					} `json:"name"`
				} `json:"account"`
			} `json:"sender"`
			Receiver struct {
				Account struct {
					Proxy struct {
						Value string `json:"value"`
					} `json:"proxy"`
				} `json:"account"`
			} `json:"receiver"`
			Date time.Time `json:"date"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode verify response")
	}

	if strings.TrimSpace(apiResp.Data.TransRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "verify response missing transaction reference")
	}

	senderName := apiResp.Data.Sender.Account.Name.TH
	if senderName == "" {
		senderName = apiResp.Data.Sender.Account.Name.EN
	}

	return &SlipResult{
		TransactionRef: apiResp.Data.TransRef,
		Amount:         apiResp.Data.Amount.Amount,
		SenderBank:     apiResp.Data.Sender.Bank.Name,
		SenderName:     senderName,
		ReceiverID:     apiResp.Data.Receiver.Account.Proxy.Value,
		TransferredAt:  apiResp.Data.Date,
	}, nil
}
