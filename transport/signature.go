package transport

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signatureHeader = "X-Hub-Signature-256"

// VerifySignature checks the webhook body against the X-Hub-Signature-256
// header: "sha256=" followed by the hex HMAC-SHA256 of the raw body keyed
// with the app secret.
func VerifySignature(appSecret string, body []byte, header string) bool {
	if appSecret == "" || header == "" {
		return false
	}

	provided, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	providedMAC, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(providedMAC, mac.Sum(nil))
}
