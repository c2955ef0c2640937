package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// SignaturePayload holds the notification fields covered by the signature.
type SignaturePayload struct {
	OrderID     string
	StatusCode  string
	GrossAmount string
}

// ComputeSignature returns the hex SHA-512 digest the gateway attaches to notifications.
func ComputeSignature(p SignaturePayload, serverKey string) string {
	sum := sha512.Sum512([]byte(p.OrderID + p.StatusCode + p.GrossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature compares the provided signature in constant time.
func VerifySignature(p SignaturePayload, serverKey, provided string) bool {
	expected := ComputeSignature(p, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}
