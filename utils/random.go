package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateCode returns n random bytes as an upper-case hex string.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// TicketNumber generates a human-readable booking ticket number. Collisions
// are caught by the unique index on bookings.ticket_number.
func TicketNumber() (string, error) {
	code, err := GenerateCode(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TKT-%s", code), nil
}

// ReceiptCode generates the receipt identifier sent with a gateway order.
func ReceiptCode() (string, error) {
	code, err := GenerateCode(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("rcpt_%s", code), nil
}

// WalletPaymentID generates the synthetic payment id recorded for
// wallet-paid bookings, used for refund correlation later.
func WalletPaymentID() (string, error) {
	code, err := GenerateCode(8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("wallet_%s", code), nil
}
