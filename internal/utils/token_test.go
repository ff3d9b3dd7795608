package utils

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenLengthAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := NewToken(20)
		require.NoError(t, err)
		assert.Len(t, tok, 40) // 20 bytes hex encoded
		assert.False(t, seen[tok], "token repeated")
		seen[tok] = true
	}
}

func TestNewOTPRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		otp, err := NewOTP()
		require.NoError(t, err)
		require.Len(t, otp, 4)
		n, err := strconv.Atoi(otp)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1000)
		assert.LessOrEqual(t, n, 9999)
	}
}

func TestEqualOTP(t *testing.T) {
	assert.True(t, EqualOTP("1234", "1234"))
	assert.False(t, EqualOTP("1234", "4321"))
	assert.False(t, EqualOTP("1234", "123"))
	assert.False(t, EqualOTP("", "1234"))
}
