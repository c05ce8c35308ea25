// Package webhooks verifies inbound provider callbacks. The signature
// provider signs the raw body with HMAC-SHA256 and sends the hex digest in
// X-Signature.
package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

const (
	SignatureHeader = "X-Signature"
	EventIDHeader   = "X-Event-Id"
)

type VerificationResult struct {
	Valid   bool
	EventID string
}

// VerifyHMAC checks the X-Signature digest over rawBody. An empty secret is
// a configuration error, never a pass.
func VerifyHMAC(headers http.Header, rawBody []byte, secret string) (VerificationResult, error) {
	if strings.TrimSpace(secret) == "" {
		return VerificationResult{}, fmt.Errorf("webhook secret is empty")
	}
	res := VerificationResult{EventID: strings.TrimSpace(headers.Get(EventIDHeader))}

	sigHex := strings.TrimSpace(headers.Get(SignatureHeader))
	if sigHex == "" {
		return res, nil
	}
	provided, err := hex.DecodeString(sigHex)
	if err != nil {
		return res, nil
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	res.Valid = hmac.Equal(provided, mac.Sum(nil))
	return res, nil
}

// Sign produces the digest a caller puts in X-Signature; used by tests and
// by the mock provider when calling back into the service.
func Sign(rawBody []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}
