package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(secret string) *Client {
	return NewClient(&Config{
		BaseURL: "http://localhost:0",
		KeyID:   "key_test",
		Secret:  secret,
	})
}

func sign(secret, orderID, paymentID string) string {
	return Hmac256(signaturePayload(orderID, paymentID), []byte(secret))
}

func TestVerifySignatureAccepted(t *testing.T) {
	c := testClient("s3cret")

	sig := sign("s3cret", "order_1", "pay_1")
	require.NotEmpty(t, sig)

	assert.True(t, c.VerifySignature("order_1", "pay_1", sig))
}

func TestVerifySignatureRejected(t *testing.T) {
	c := testClient("s3cret")
	valid := sign("s3cret", "order_1", "pay_1")

	cases := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
	}{
		{"wrong secret", "order_1", "pay_1", sign("other", "order_1", "pay_1")},
		{"tampered order id", "order_2", "pay_1", valid},
		{"tampered payment id", "order_1", "pay_2", valid},
		{"empty signature", "order_1", "pay_1", ""},
		{"truncated signature", "order_1", "pay_1", valid[:len(valid)-2]},
		{"garbage signature", "order_1", "pay_1", "not-a-hex-digest"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, c.VerifySignature(tc.orderID, tc.paymentID, tc.signature))
		})
	}
}

func TestHmac256Deterministic(t *testing.T) {
	a := Hmac256([]byte("payload"), []byte("key"))
	b := Hmac256([]byte("payload"), []byte("key"))
	c := Hmac256([]byte("payload"), []byte("other key"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
