package utils

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

func NowUTC() time.Time {
	return time.Now().UTC()
}

// RandString returns n bytes of entropy hex-encoded (2n characters).
func RandString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func defaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
