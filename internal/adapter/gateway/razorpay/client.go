// Package razorpay talks to a Razorpay-compatible orders API.
package razorpay

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

	"notehub/config"
	"notehub/internal/core/domain"
	"notehub/internal/core/ports"

	"github.com/rs/zerolog"
)

const maxErrorBody = 4 << 10

// Client implements ports.PaymentGateway.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
	sigSvc    ports.SignatureService
	log       zerolog.Logger
}

// NewClient creates a provider client. The configured timeout bounds each
// request end to end; callers may tighten it further through ctx.
func NewClient(cfg config.GatewayConfig, sigSvc ports.SignatureService, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		http:      &http.Client{Timeout: cfg.Timeout},
		sigSvc:    sigSvc,
		log:       log,
	}
}

func (c *Client) Name() string { return "razorpay" }

type orderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Receipt  string `json:"receipt"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// ProviderError is a non-2xx answer from the provider.
type ProviderError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("provider returned %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned %d: %s: %s", e.StatusCode, e.Code, e.Description)
}

// CreateOrder registers an auto-captured order. Orders are not retried: a
// timed-out request may still have created an order upstream, and the
// pending ledger entry is only written once an id comes back.
func (c *Client) CreateOrder(ctx context.Context, req ports.GatewayOrderRequest) (*ports.GatewayOrder, error) {
	body, err := json.Marshal(orderRequest{
		Amount:         req.Amount,
		Currency:       req.Currency,
		Receipt:        req.ReceiptID,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		// http.Client reports its own timeout as a net error; normalize so
		// callers can match on context.DeadlineExceeded.
		var timeout interface{ Timeout() bool }
		if errors.As(err, &timeout) && timeout.Timeout() && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("create order: %w: %v", context.DeadlineExceeded, err)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Str("receipt", req.ReceiptID).
		Msg("provider order call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		pe := &ProviderError{StatusCode: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil {
			pe.Code = er.Error.Code
			pe.Description = er.Error.Description
		}
		return nil, pe
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	if out.ID == "" {
		return nil, errors.New("provider returned an order without id")
	}

	return &ports.GatewayOrder{
		ID:       out.ID,
		Amount:   out.Amount,
		Currency: out.Currency,
		Status:   out.Status,
	}, nil
}

// VerifyPaymentSignature checks hex(HMAC-SHA256(keySecret, orderId|paymentId)).
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return c.sigSvc.Verify(c.keySecret, domain.PaymentSignaturePayload(orderID, paymentID), signature)
}
