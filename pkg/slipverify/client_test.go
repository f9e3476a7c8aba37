package slipverify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/naritchaphan/talad-backend/pkg/config"
	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testConfig() config.SlipVerifyConfig {
	return config.SlipVerifyConfig{
		BaseURL: "http://slips.test/api/v1",
		APIKey:  "test-key",
	}
}

func TestClientVerifyRequest(t *testing.T) {
	const expectedURL = "http://slips.test/api/v1/verify"
	respBody := `{"data":{"transRef":"TXN0012345","amount":{"amount":150.50},"sender":{"bank":{"name":"KBANK"},"account":{"name":{"th":"สมชาย ใจดี","en":"Somchai J"}}},"receiver":{"account":{"proxy":{"value":"0891234567"}}},"date":"2026-08-01T10:30:00Z"}}`

	var capturedURL string
	var capturedHeaders http.Header

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["payload"] != "qr-data" {
			t.Fatalf("unexpected payload %q", payload["payload"])
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Verify(context.Background(), VerifyRequest{QRPayload: "qr-data"})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("Authorization") != "Bearer test-key" {
		t.Fatalf("authorization header missing")
	}
	if result.TransactionRef != "TXN0012345" {
		t.Fatalf("unexpected transaction ref %q", result.TransactionRef)
	}
	if !result.Amount.Equal(decimal.NewFromFloat(150.50)) {
		t.Fatalf("unexpected amount %s", result.Amount)
	}
	if result.SenderBank != "KBANK" {
		t.Fatalf("unexpected sender bank %q", result.SenderBank)
	}
	if result.SenderName != "สมชาย ใจดี" {
		t.Fatalf("unexpected sender name %q", result.SenderName)
	}
}

func TestClientVerifyUnreadableSlip(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusUnprocessableEntity,
			Body:       io.NopCloser(strings.NewReader(`{"message":"invalid qr"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Verify(context.Background(), VerifyRequest{Image: "base64-bytes"})
	if err == nil {
		t.Fatal("expected error for unreadable slip")
	}
	if te := pkgerrors.As(err); te == nil || te.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClientVerifyProviderDown(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(strings.NewReader("upstream error")),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Verify(context.Background(), VerifyRequest{Image: "base64-bytes"})
	if err == nil {
		t.Fatal("expected error when provider is down")
	}
	if te := pkgerrors.As(err); te == nil || te.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestClientVerifyRequiresInput(t *testing.T) {
	client, err := NewClient(testConfig())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Verify(context.Background(), VerifyRequest{}); err == nil {
		t.Fatal("expected validation error for empty request")
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(config.SlipVerifyConfig{BaseURL: "http://slips.test"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewClient(config.SlipVerifyConfig{APIKey: "key"}); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
