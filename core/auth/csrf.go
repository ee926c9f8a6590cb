package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// GenerateCSRF derives a deterministic CSRF token from the session id,
// keyed with the configured secret.
func GenerateCSRF(key, sessionID string) (string, error) {
	mac := hmac.New(sha256.New, []byte(key))
	if _, err := mac.Write([]byte(sessionID)); err != nil {
		return "", err
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifyCSRF checks a presented token against the session's expected one.
func VerifyCSRF(expected, presented string) bool {
	if expected == "" || presented == "" {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(presented))
}
