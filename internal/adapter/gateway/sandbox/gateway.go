// Package sandbox is an offline payment provider for development and tests.
// It mints order ids locally and signs completions with a shared secret the
// same way the real provider does.
package sandbox

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"notehub/internal/core/domain"
	"notehub/internal/core/ports"
)

// Gateway implements ports.PaymentGateway without network access.
type Gateway struct {
	secret string
	sigSvc ports.SignatureService

	mu     sync.Mutex
	orders map[string]ports.GatewayOrder
}

func New(secret string, sigSvc ports.SignatureService) *Gateway {
	return &Gateway{
		secret: secret,
		sigSvc: sigSvc,
		orders: make(map[string]ports.GatewayOrder),
	}
}

func (g *Gateway) Name() string { return "sandbox" }

func (g *Gateway) CreateOrder(ctx context.Context, req ports.GatewayOrderRequest) (*ports.GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}

	id, err := newID("order_")
	if err != nil {
		return nil, err
	}
	order := ports.GatewayOrder{ID: id, Amount: req.Amount, Currency: req.Currency, Status: "created"}

	g.mu.Lock()
	g.orders[id] = order
	g.mu.Unlock()

	return &order, nil
}

// Pay simulates the checkout: it returns a payment id and the signature the
// provider would hand back to the payer.
func (g *Gateway) Pay(orderID string) (paymentID, signature string, err error) {
	g.mu.Lock()
	_, ok := g.orders[orderID]
	g.mu.Unlock()
	if !ok {
		return "", "", fmt.Errorf("unknown sandbox order %s", orderID)
	}

	paymentID, err = newID("pay_")
	if err != nil {
		return "", "", err
	}
	return paymentID, g.sigSvc.Sign(g.secret, domain.PaymentSignaturePayload(orderID, paymentID)), nil
}

func (g *Gateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return g.sigSvc.Verify(g.secret, domain.PaymentSignaturePayload(orderID, paymentID), signature)
}

func newID(prefix string) (string, error) {
	b := make([]byte, 7)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return prefix + hex.EncodeToString(b), nil
}
