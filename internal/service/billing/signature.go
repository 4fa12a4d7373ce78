package billing

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"
	"time"
)

const (
	StripeSignatureHeader       = "Stripe-Signature"
	PaystackSignatureHeader     = "X-Paystack-Signature"
	LemonSqueezySignatureHeader = "X-Signature"
)

func sign(h func() hash.Hash, secret string, parts ...[]byte) []byte {
	mac := hmac.New(h, []byte(secret))
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)
}

func equalHex(expected []byte, got string) bool {
	raw, err := hex.DecodeString(strings.TrimSpace(got))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, raw)
}

// VerifyStripe checks a "t=<unix>,v1=<hex>" header. Any v1 entry may match,
// Stripe sends several while a secret is being rolled.
func VerifyStripe(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if secret == "" || header == "" {
		return app_errors.ErrInvalidSignature
	}

	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return app_errors.ErrInvalidSignature
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return app_errors.ErrInvalidSignature
	}
	if tolerance > 0 {
		age := now.Sub(time.Unix(unix, 0))
		if age > tolerance || age < -tolerance {
			return app_errors.ErrInvalidSignature
		}
	}

	expected := sign(sha256.New, secret, []byte(ts), []byte("."), payload)
	for _, s := range sigs {
		if equalHex(expected, s) {
			return nil
		}
	}
	return app_errors.ErrInvalidSignature
}

// VerifyPaystack checks the hex HMAC-SHA512 of the body keyed with the secret key.
func VerifyPaystack(payload []byte, header, secret string) error {
	if secret == "" || !equalHex(sign(sha512.New, secret, payload), header) {
		return app_errors.ErrInvalidSignature
	}
	return nil
}

// VerifyLemonSqueezy checks the hex HMAC-SHA256 of the body keyed with the
// webhook signing secret.
func VerifyLemonSqueezy(payload []byte, header, secret string) error {
	if secret == "" || !equalHex(sign(sha256.New, secret, payload), header) {
		return app_errors.ErrInvalidSignature
	}
	return nil
}

// StripeHeader builds a valid Stripe-Signature value for payload.
func StripeHeader(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + hex.EncodeToString(sign(sha256.New, secret, []byte(ts), []byte("."), payload))
}

// HexHMAC returns the hex signature Paystack (sha512) or LemonSqueezy
// (sha256) would send for payload.
func HexHMAC(provider string, payload []byte, secret string) string {
	h := sha256.New
	if provider == models.ProviderPaystack {
		h = sha512.New
	}
	return hex.EncodeToString(sign(h, secret, payload))
}
