package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature_Valid(t *testing.T) {
	body := []byte(`{"event":"charge.completed","data":{"tx_ref":"gf-1","status":"successful"}}`)
	secret := "test-secret"

	signature := Sign(body, secret)

	assert.True(t, VerifySignature(body, signature, secret))
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	body := []byte(`{"data":{"tx_ref":"gf-1","status":"successful"}}`)
	secret := "test-secret"
	signature := Sign(body, secret)

	tampered := []byte(`{"data":{"tx_ref":"gf-2","status":"successful"}}`)

	assert.False(t, VerifySignature(tampered, signature, secret))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{"data":{"tx_ref":"gf-1"}}`)
	signature := Sign(body, "test-secret")

	assert.False(t, VerifySignature(body, signature, "other-secret"))
}

func TestVerifySignature_EmptySignature(t *testing.T) {
	assert.False(t, VerifySignature([]byte("body"), "", "test-secret"))
}

func TestVerifySignature_EmptySecret(t *testing.T) {
	signature := Sign([]byte("body"), "test-secret")
	assert.False(t, VerifySignature([]byte("body"), signature, ""))
}
