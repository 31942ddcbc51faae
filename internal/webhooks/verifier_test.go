package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallenge(t *testing.T) {
	v := NewVerifier("secret-token")

	resp := v.Challenge("plain123")
	assert.Equal(t, "plain123", resp.PlainToken)

	mac := hmac.New(sha256.New, []byte("secret-token"))
	mac.Write([]byte("plain123"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), resp.EncryptedToken)
}

func signFor(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%d:%s", ts, body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func TestValidateSignature(t *testing.T) {
	v := NewVerifier("secret-token")
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	body := []byte(`{"event":"meeting.started"}`)
	ts := now.Unix()

	err := v.ValidateSignature(body, signFor("secret-token", ts, body), fmt.Sprint(ts), now)
	require.NoError(t, err)
}

func TestValidateSignatureWrongSecret(t *testing.T) {
	v := NewVerifier("secret-token")
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	body := []byte(`{}`)
	ts := now.Unix()

	err := v.ValidateSignature(body, signFor("other-secret", ts, body), fmt.Sprint(ts), now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateSignatureTamperedBody(t *testing.T) {
	v := NewVerifier("secret-token")
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	ts := now.Unix()

	err := v.ValidateSignature([]byte(`{"tampered":true}`), signFor("secret-token", ts, []byte(`{}`)), fmt.Sprint(ts), now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateSignatureStaleTimestamp(t *testing.T) {
	v := NewVerifier("secret-token")
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	body := []byte(`{}`)
	ts := now.Add(-10 * time.Minute).Unix()

	err := v.ValidateSignature(body, signFor("secret-token", ts, body), fmt.Sprint(ts), now)
	assert.ErrorIs(t, err, ErrStaleTimestamp)
}

func TestValidateSignatureMissingHeaders(t *testing.T) {
	v := NewVerifier("secret-token")

	err := v.ValidateSignature([]byte(`{}`), "", "", time.Now())
	assert.ErrorIs(t, err, ErrMissingSignature)
}
