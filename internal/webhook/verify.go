// Package webhook verifies GitHub webhook signatures.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader is the request header carrying the HMAC signature.
const SignatureHeader = "X-Hub-Signature-256"

// Sign computes the signature header value for a payload: the hex-encoded
// HMAC-SHA256 of the raw body keyed by secret, prefixed with "sha256=".
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a webhook signature against the exact raw request body.
// The body must not be re-serialized before verification; any re-encoding
// changes the signature input. Comparison is constant-time. A missing
// signature or empty secret is invalid.
func Verify(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	expected := Sign(body, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
