package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signWithSecret(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestGateway(t *testing.T, baseURL string) *RazorpayService {
	t.Setenv("RAZORPAY_BASE_URL", baseURL)
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "test_secret")
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "test_webhook_secret")
	return NewRazorpayService()
}

func TestVerifySignature(t *testing.T) {
	gateway := newTestGateway(t, "https://api.razorpay.com")

	valid := signWithSecret("test_secret", []byte("order_abc|pay_123"))
	assert.True(t, gateway.VerifySignature("order_abc", "pay_123", valid))

	// Any tampering with order, payment, or signature must fail.
	assert.False(t, gateway.VerifySignature("order_abc", "pay_124", valid))
	assert.False(t, gateway.VerifySignature("order_abd", "pay_123", valid))
	assert.False(t, gateway.VerifySignature("order_abc", "pay_123", valid[:len(valid)-1]+"0"))
	assert.False(t, gateway.VerifySignature("order_abc", "pay_123", ""))
}

func TestVerifySignature_NoSecretConfigured(t *testing.T) {
	t.Setenv("RAZORPAY_BASE_URL", "")
	t.Setenv("RAZORPAY_KEY_ID", "")
	t.Setenv("RAZORPAY_KEY_SECRET", "")
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "")
	gateway := NewRazorpayService()

	sig := signWithSecret("", []byte("order_abc|pay_123"))
	assert.False(t, gateway.VerifySignature("order_abc", "pay_123", sig))
}

func TestVerifyWebhookSignature(t *testing.T) {
	gateway := newTestGateway(t, "https://api.razorpay.com")
	body := []byte(`{"event":"payment.captured","payload":{}}`)

	assert.True(t, gateway.VerifyWebhookSignature(body, signWithSecret("test_webhook_secret", body)))
	assert.False(t, gateway.VerifyWebhookSignature(body, signWithSecret("wrong_secret", body)))
	assert.False(t, gateway.VerifyWebhookSignature([]byte(`{"event":"tampered"}`), signWithSecret("test_webhook_secret", body)))
	assert.False(t, gateway.VerifyWebhookSignature(body, ""))
}

func TestCreateOrder(t *testing.T) {
	var gotAuthUser, gotAuthPass, gotPath string
	var gotBody razorpayOrderRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(razorpayOrderResponse{
			ID:       "order_test_42",
			Entity:   "order",
			Amount:   gotBody.Amount,
			Currency: gotBody.Currency,
			Receipt:  gotBody.Receipt,
			Status:   "created",
		})
	}))
	defer server.Close()

	gateway := newTestGateway(t, server.URL)

	orderID, err := gateway.CreateOrder(context.Background(), 199900, "INR", "rcpt-1", map[string]string{
		"clinicId": "abc123",
		"planCode": "PRO",
	})
	assert.NoError(t, err)
	assert.Equal(t, "order_test_42", orderID)

	assert.Equal(t, "/v1/orders", gotPath)
	assert.Equal(t, "rzp_test_key", gotAuthUser)
	assert.Equal(t, "test_secret", gotAuthPass)
	assert.Equal(t, int64(199900), gotBody.Amount)
	assert.Equal(t, "INR", gotBody.Currency)
	assert.Equal(t, "rcpt-1", gotBody.Receipt)
	assert.Equal(t, "PRO", gotBody.Notes["planCode"])
}

func TestCreateOrder_ProviderErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Currency is not supported"}}`))
	}))
	defer server.Close()

	gateway := newTestGateway(t, server.URL)

	_, err := gateway.CreateOrder(context.Background(), 199900, "XYZ", "rcpt-1", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "BAD_REQUEST_ERROR")
	assert.Contains(t, err.Error(), "Currency is not supported")
}

func TestCreateOrder_MissingCredentials(t *testing.T) {
	requestSeen := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestSeen = true
	}))
	defer server.Close()

	t.Setenv("RAZORPAY_BASE_URL", server.URL)
	t.Setenv("RAZORPAY_KEY_ID", "")
	t.Setenv("RAZORPAY_KEY_SECRET", "")
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "")
	gateway := NewRazorpayService()

	_, err := gateway.CreateOrder(context.Background(), 199900, "INR", "rcpt-1", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "RAZORPAY_KEY_ID")
	assert.False(t, requestSeen, "no request should leave the process without credentials")
}
