package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

// Sign computes the hex HMAC-SHA256 of payload under secret. Outbound
// deliveries carry this in the signature header when a secret is configured.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks an inbound signature against the raw body. It accepts plain
// hex and the "sha256=<hex>" form, and compares in constant time. The error
// is deliberately generic.
func Verify(body []byte, signature, secret string) error {
	if secret == "" || signature == "" {
		return errors.New("webhook verification failed")
	}

	hexSig := strings.TrimPrefix(signature, "sha256=")
	actual, err := hex.DecodeString(hexSig)
	if err != nil {
		return errors.New("webhook verification failed")
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	expected := h.Sum(nil)

	if subtle.ConstantTimeCompare(expected, actual) != 1 {
		return errors.New("webhook verification failed")
	}
	return nil
}
