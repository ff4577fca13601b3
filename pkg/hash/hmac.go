package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"
)

// ComputeHmac256 computes HMAC-SHA256
func ComputeHmac256(message, secret string) (string, error) {
	key := []byte(secret)
	h := hmac.New(sha256.New, key)
	_, err := h.Write([]byte(message))
	if err != nil {
		return "", errors.Wrap(err, "hmac.Write")
	}

	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

// ValidHmac256 reports whether mac is the HMAC-SHA256 of message under secret
func ValidHmac256(message, mac, secret string) bool {
	expected, err := ComputeHmac256(message, secret)
	if err != nil {
		return false
	}

	return hmac.Equal([]byte(expected), []byte(mac))
}
