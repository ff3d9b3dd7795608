package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

// NewToken returns a hex-encoded string built from n bytes of
// cryptographically secure random data. It is used for OTP correlation
// tokens and password-reset tokens.
func NewToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewOTP returns a 4-digit one-time passcode in the range 1000-9999.
// crypto/rand is used rather than math/rand so codes are not guessable
// from previous ones.
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}

// EqualOTP compares a submitted code against the stored one in constant
// time with respect to the code contents.
func EqualOTP(stored, submitted string) bool {
	if len(stored) != len(submitted) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
