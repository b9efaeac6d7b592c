package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notehub/config"
	"notehub/internal/core/ports"
	"notehub/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string, timeout time.Duration) *Client {
	return NewClient(config.GatewayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		BaseURL:   baseURL + "/",
		Timeout:   timeout,
	}, service.NewHMACSignatureService(), zerolog.Nop())
}

func TestClient_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body orderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(50000), body.Amount)
		assert.Equal(t, "INR", body.Currency)
		assert.Equal(t, "receipt_1", body.Receipt)
		assert.Equal(t, 1, body.PaymentCapture)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_N3x9","entity":"order","amount":50000,"currency":"INR","status":"created","receipt":"receipt_1"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	order, err := c.CreateOrder(context.Background(), ports.GatewayOrderRequest{Amount: 50000, Currency: "INR", ReceiptID: "receipt_1"})
	require.NoError(t, err)
	assert.Equal(t, "order_N3x9", order.ID)
	assert.Equal(t, int64(50000), order.Amount)
	assert.Equal(t, "created", order.Status)
	assert.Equal(t, "razorpay", c.Name())
}

func TestClient_CreateOrder_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be atleast INR 1.00"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second).CreateOrder(context.Background(), ports.GatewayOrderRequest{Amount: 1, Currency: "INR"})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
	assert.Equal(t, "BAD_REQUEST_ERROR", pe.Code)
	assert.Contains(t, err.Error(), "atleast INR 1.00")
}

func TestClient_CreateOrder_UnparseableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>upstream down</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second).CreateOrder(context.Background(), ports.GatewayOrderRequest{Amount: 100, Currency: "INR"})
	require.Error(t, err)
	assert.Equal(t, "provider returned 502", err.Error())
}

func TestClient_CreateOrder_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"amount":100}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second).CreateOrder(context.Background(), ports.GatewayOrderRequest{Amount: 100, Currency: "INR"})
	assert.ErrorContains(t, err, "without id")
}

func TestClient_CreateOrder_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	t.Run("client timeout", func(t *testing.T) {
		_, err := newTestClient(srv.URL, 20*time.Millisecond).
			CreateOrder(context.Background(), ports.GatewayOrderRequest{Amount: 100, Currency: "INR"})
		assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	})

	t.Run("context deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := newTestClient(srv.URL, time.Minute).
			CreateOrder(ctx, ports.GatewayOrderRequest{Amount: 100, Currency: "INR"})
		assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	})
}

func TestClient_VerifyPaymentSignature(t *testing.T) {
	c := newTestClient("http://unused", time.Second)
	sig := service.NewHMACSignatureService().Sign("rzp_test_secret", "order_N3x9|pay_Q8v2")

	assert.True(t, c.VerifyPaymentSignature("order_N3x9", "pay_Q8v2", sig))
	assert.False(t, c.VerifyPaymentSignature("order_N3x9", "pay_other", sig))
	assert.False(t, c.VerifyPaymentSignature("order_N3x9", "pay_Q8v2", "deadbeef"))
}

func TestClient_VerifyPaymentSignature_EmptySecret(t *testing.T) {
	c := NewClient(config.GatewayConfig{KeyID: "rzp_test_key", Timeout: time.Second},
		service.NewHMACSignatureService(), zerolog.Nop())
	forged := service.NewHMACSignatureService().Sign("", "order_x|pay_attacker")

	assert.False(t, c.VerifyPaymentSignature("order_x", "pay_attacker", forged))
}
