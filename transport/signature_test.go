package transport

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	body := []byte(`{"object":"whatsapp_business_account"}`)

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid", signBody("top-secret", body), true},
		{"wrong secret", signBody("other-secret", body), false},
		{"missing prefix", signBody("top-secret", body)[len("sha256="):], false},
		{"empty header", "", false},
		{"not hex", "sha256=zzzz", false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := VerifySignature("top-secret", body, tc.header); got != tc.want {
				t.Fatalf("VerifySignature() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestVerifySignatureTamperedBody(t *testing.T) {
	t.Parallel()

	header := signBody("top-secret", []byte(`{"a":1}`))
	if VerifySignature("top-secret", []byte(`{"a":2}`), header) {
		t.Fatal("VerifySignature() accepted a tampered body")
	}
}
