package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateNumericCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "code %q has non-digit", code)
		}
	}
}

func TestHashOTPNormalizesEmail(t *testing.T) {
	key := "server-secret"
	require.Equal(t,
		HashOTP("123456", "User@Example.com", key),
		HashOTP("123456", "user@example.com", key),
	)
	require.Equal(t,
		HashOTP(" 123456 ", "  user@example.com ", key),
		HashOTP("123456", "user@example.com", key),
	)
}

func TestHashOTPDependsOnKeyAndCode(t *testing.T) {
	base := HashOTP("123456", "user@example.com", "k1")
	require.NotEqual(t, base, HashOTP("123456", "user@example.com", "k2"))
	require.NotEqual(t, base, HashOTP("123457", "user@example.com", "k1"))
	require.NotEqual(t, base, HashOTP("123456", "other@example.com", "k1"))
	require.NotContains(t, base, "123456")
}

func TestVerifyOTP(t *testing.T) {
	stored := HashOTP("654321", "ngo@example.org", "secret")

	require.True(t, VerifyOTP(stored, "654321", "NGO@example.org", "secret"))
	require.False(t, VerifyOTP(stored, "000000", "ngo@example.org", "secret"))
	require.False(t, VerifyOTP(stored, "", "ngo@example.org", "secret"))
	require.False(t, VerifyOTP("", "654321", "ngo@example.org", "secret"))
	require.False(t, VerifyOTP(stored, "654321", "ngo@example.org", "other-secret"))
}
