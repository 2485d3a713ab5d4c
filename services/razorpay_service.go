package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// PaymentGateway is the slice of the payment provider the ledger needs:
// create an order, verify the checkout signature, expose the public key id
// for the client SDK.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// RazorpayService handles interactions with the Razorpay API
type RazorpayService struct {
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
	client        *http.Client
}

// NewRazorpayService creates a new Razorpay service instance from environment
// configuration. Missing credentials are logged loudly but do not fail
// construction; order creation will error until they are set.
func NewRazorpayService() *RazorpayService {
	baseURL := os.Getenv("RAZORPAY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}

	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	webhookSecret := os.Getenv("RAZORPAY_WEBHOOK_SECRET")

	if keyID == "" || keySecret == "" {
		log.Printf("WARNING: Razorpay credentials not fully configured:")
		if keyID == "" {
			log.Printf("  - RAZORPAY_KEY_ID is missing")
		}
		if keySecret == "" {
			log.Printf("  - RAZORPAY_KEY_SECRET is missing")
		}
		log.Printf("Set these environment variables for provider payments to work")
	} else {
		log.Printf("Razorpay Service Configuration:")
		log.Printf("  Base URL: %s", baseURL)
		log.Printf("  Key ID: %s", keyID)
		log.Printf("  Key Secret: [CONFIGURED]")
	}
	if webhookSecret == "" {
		log.Printf("WARNING: RAZORPAY_WEBHOOK_SECRET is missing; webhook verification will reject all events")
	}

	return &RazorpayService{
		baseURL:       baseURL,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

// KeyID returns the public key id the client SDK needs to open checkout
func (s *RazorpayService) KeyID() string {
	return s.keyID
}

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers an order with Razorpay and returns the provider order
// id. Amount is in minor units, exactly as Razorpay expects.
func (s *RazorpayService) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (string, error) {
	if s.keyID == "" || s.keySecret == "" {
		return "", fmt.Errorf("missing Razorpay credentials. Please set RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET environment variables")
	}

	payload := razorpayOrderRequest{
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal order request: %w", err)
	}

	url := s.baseURL + "/v1/orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.keyID, s.keySecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send order request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read order response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp razorpayErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			log.Printf("Razorpay order creation failed: %s - %s", errResp.Error.Code, errResp.Error.Description)
			return "", fmt.Errorf("razorpay API error: %s - %s", errResp.Error.Code, errResp.Error.Description)
		}
		return "", fmt.Errorf("razorpay API error: status %d: %s", resp.StatusCode, string(respBody))
	}

	var order razorpayOrderResponse
	if err := json.Unmarshal(respBody, &order); err != nil {
		return "", fmt.Errorf("failed to parse order response: %w", err)
	}
	if order.ID == "" {
		return "", fmt.Errorf("razorpay returned no order id")
	}

	log.Printf("Razorpay order created: %s (%d %s)", order.ID, order.Amount, order.Currency)
	return order.ID, nil
}

// VerifySignature checks the checkout signature Razorpay hands to the client:
// hex(HMAC-SHA256(orderID + "|" + paymentID, keySecret)). Comparison is
// constant time.
func (s *RazorpayService) VerifySignature(orderID, paymentID, signature string) bool {
	if s.keySecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw webhook body using the webhook secret.
func (s *RazorpayService) VerifyWebhookSignature(body []byte, signature string) bool {
	if s.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
