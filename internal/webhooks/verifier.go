package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingSignature = errors.New("signature header is required")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrStaleTimestamp   = errors.New("signature timestamp outside allowed skew")
)

// signatureMaxAge bounds replay of signed webhook requests.
const signatureMaxAge = 5 * time.Minute

// ChallengeResponse answers a Zoom endpoint.url_validation handshake.
type ChallengeResponse struct {
	PlainToken     string `json:"plainToken"`
	EncryptedToken string `json:"encryptedToken"`
}

// Verifier handles the Zoom url_validation challenge and optional
// per-request signature validation.
type Verifier struct {
	secretToken string
}

// NewVerifier creates a verifier for the given Zoom secret token.
func NewVerifier(secretToken string) *Verifier {
	return &Verifier{secretToken: secretToken}
}

// Configured reports whether a secret is present.
func (v *Verifier) Configured() bool {
	return v.secretToken != ""
}

// Challenge computes the url_validation response:
// encryptedToken = hex(HMAC-SHA256(secret, plainToken)).
func (v *Verifier) Challenge(plainToken string) ChallengeResponse {
	h := hmac.New(sha256.New, []byte(v.secretToken))
	h.Write([]byte(plainToken))
	return ChallengeResponse{
		PlainToken:     plainToken,
		EncryptedToken: hex.EncodeToString(h.Sum(nil)),
	}
}

// ValidateSignature checks the request signature header against
// HMAC-SHA256(secret, "v0:timestamp:body") with replay protection.
func (v *Verifier) ValidateSignature(body []byte, signature, timestamp string, now time.Time) error {
	if v.secretToken == "" {
		return fmt.Errorf("webhook secret token not configured")
	}
	if signature == "" || timestamp == "" {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStaleTimestamp, err)
	}
	if now.Unix()-ts > int64(signatureMaxAge.Seconds()) {
		return ErrStaleTimestamp
	}

	message := fmt.Sprintf("v0:%s:%s", timestamp, string(body))
	h := hmac.New(sha256.New, []byte(v.secretToken))
	h.Write([]byte(message))
	expected := hex.EncodeToString(h.Sum(nil))

	provided := strings.TrimPrefix(signature, "v0=")
	if !hmac.Equal([]byte(provided), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}
