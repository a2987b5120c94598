// Package payment handles the boundary with the external payment
// gateway: webhook signature verification and payload shaping. Capture
// and settlement stay on the gateway's side; this system only records
// the subscription state transitions it is told about.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature checks an HMAC-SHA256 hex signature over the raw
// webhook body. A mismatch is a hard rejection; the payload must not be
// parsed, let alone trusted, before this passes. Comparison is
// constant-time.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the hex HMAC-SHA256 signature for a body. Used by tests
// and by outbound verification calls that need to present a signature.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
