package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hmac256 is a function to generate HMAC256 hash.
func Hmac256(body, key []byte) string {
	hash := hmac.New(sha256.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

// signaturePayload is the exact byte sequence the provider signs when it
// confirms a payment.
func signaturePayload(orderID, paymentID string) []byte {
	return []byte(fmt.Sprintf("%s|%s", orderID, paymentID))
}

// VerifySignature recomputes the confirmation HMAC over orderID|paymentID
// and compares it in constant time against the supplied signature.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	expected := Hmac256(signaturePayload(orderID, paymentID), []byte(c.secret))
	return hmac.Equal([]byte(signature), []byte(expected))
}
