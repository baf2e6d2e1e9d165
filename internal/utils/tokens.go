package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewOpaqueToken returns a random hex token, used as the owner key of OTP flows.
func NewOpaqueToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 bits
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
