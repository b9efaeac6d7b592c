package service

import (
	"testing"

	"notehub/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestHMACSignatureService_SignAndVerify(t *testing.T) {
	svc := NewHMACSignatureService()
	secret := "rzp_test_secret"
	payload := domain.PaymentSignaturePayload("order_N3x9", "pay_Q8v2")

	signature := svc.Sign(secret, payload)

	assert.Regexp(t, `^[0-9a-f]{64}$`, signature)
	assert.True(t, svc.Verify(secret, payload, signature))
}

func TestHMACSignatureService_KnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	svc := NewHMACSignatureService()
	got := svc.Sign("Jefe", "what do ya want for nothing?")
	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)
}

func TestHMACSignatureService_VerifyFails(t *testing.T) {
	svc := NewHMACSignatureService()
	payload := domain.PaymentSignaturePayload("order_1", "pay_1")
	good := svc.Sign("secret", payload)

	tests := []struct {
		name    string
		secret  string
		payload string
		sig     string
	}{
		{"wrong key", "other", payload, good},
		{"swapped ids", "secret", domain.PaymentSignaturePayload("pay_1", "order_1"), good},
		{"different payment", "secret", domain.PaymentSignaturePayload("order_1", "pay_2"), good},
		{"garbage", "secret", payload, "invalidsignature"},
		{"empty", "secret", payload, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, svc.Verify(tc.secret, tc.payload, tc.sig))
		})
	}
}

func TestHMACSignatureService_EmptyKeyNeverVerifies(t *testing.T) {
	svc := NewHMACSignatureService()
	payload := domain.PaymentSignaturePayload("order_x", "pay_attacker")

	// Anyone can compute a signature under an empty key.
	forged := svc.Sign("", payload)
	assert.False(t, svc.Verify("", payload, forged))
}

func TestHMACSignatureService_Deterministic(t *testing.T) {
	svc := NewHMACSignatureService()
	assert.Equal(t, svc.Sign("key", "data"), svc.Sign("key", "data"))
}
