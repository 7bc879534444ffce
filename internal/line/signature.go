package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// ErrInvalidSignature is returned when a webhook body does not match its
// X-Line-Signature header. The platform signs the raw request body with the
// channel secret, so verification must run over the exact byte sequence
// received, before any JSON decoding.
var ErrInvalidSignature = errors.New("line: invalid webhook signature")

// Sign computes the base64-encoded HMAC-SHA256 signature LINE attaches to
// webhook deliveries for the given channel secret and raw body.
func Sign(channelSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the expected signature of
// body under channelSecret. Comparison is constant-time.
func VerifySignature(channelSecret string, body []byte, signature string) bool {
	if channelSecret == "" || signature == "" {
		return false
	}
	provided, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
