package elevenlabs

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature checks the provider's webhook signature header against the
// raw request body. The header carries "t=<unix>,v0=<hex hmac>" and the
// signed payload is "<t>.<body>" keyed with the shared webhook secret.
func VerifySignature(secret, header string, body []byte) bool {
	var timestamp, provided string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v0":
			provided = v
		}
	}
	if timestamp == "" || provided == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(provided))
}

// Sign produces the signature header for a payload; the mock provider and
// tests use it to emit verifiable webhooks.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return "t=" + timestamp + ",v0=" + hex.EncodeToString(mac.Sum(nil))
}
