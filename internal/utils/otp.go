package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const otpFallbackKey = "kalyana-otp-fallback-key"

// GenerateNumericCode returns a zero-padded decimal code of the given length
// drawn from crypto/rand.
func GenerateNumericCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}

func otpKey(secret string) []byte {
	if secret == "" {
		secret = otpFallbackKey
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// HashOTP computes the keyed hash stored instead of the code itself.
// The email is trimmed and lowercased so the hash does not depend on how it was typed.
func HashOTP(code, email, secret string) string {
	payload := strings.ToLower(strings.TrimSpace(email)) + ":" + strings.TrimSpace(code)
	mac := hmac.New(sha256.New, otpKey(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyOTP recomputes the hash of entered and compares it in constant time.
func VerifyOTP(storedHash, entered, email, secret string) bool {
	if storedHash == "" || strings.TrimSpace(entered) == "" {
		return false
	}
	candidate := HashOTP(entered, email, secret)
	return hmac.Equal([]byte(storedHash), []byte(candidate))
}
