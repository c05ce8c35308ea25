package webhooks

import (
	"net/http"
	"testing"
)

func TestVerifyHMAC(t *testing.T) {
	body := []byte(`{"transaction_id":"MOCK_1","outcome":"success"}`)
	secret := "whsec_test"

	h := http.Header{}
	h.Set(SignatureHeader, Sign(body, secret))
	h.Set(EventIDHeader, "evt_1")

	res, err := VerifyHMAC(h, body, secret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.Valid || res.EventID != "evt_1" {
		t.Fatalf("expected valid result, got %+v", res)
	}

	res, err = VerifyHMAC(h, []byte("tampered"), secret)
	if err != nil || res.Valid {
		t.Fatalf("tampered body must not verify: %+v %v", res, err)
	}

	h.Set(SignatureHeader, "not-hex")
	if res, _ := VerifyHMAC(h, body, secret); res.Valid {
		t.Fatalf("garbage signature must not verify")
	}

	h.Del(SignatureHeader)
	if res, _ := VerifyHMAC(h, body, secret); res.Valid {
		t.Fatalf("missing signature must not verify")
	}

	if _, err := VerifyHMAC(h, body, ""); err == nil {
		t.Fatalf("empty secret is a configuration error")
	}
}
