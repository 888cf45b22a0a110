package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// UserCodeLength is the number of significant characters in a user code
	UserCodeLength = 8

	// userCodeAlphabet drops 0/O and 1/I so codes survive being read aloud
	userCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	deviceCodeBytes = 32
)

// GenerateUserCode returns a random normalized user code
func GenerateUserCode() (string, error) {
	buf := make([]byte, UserCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	// len(userCodeAlphabet) divides 256, so the modulo keeps the distribution uniform
	code := make([]byte, UserCodeLength)
	for i, b := range buf {
		code[i] = userCodeAlphabet[int(b)%len(userCodeAlphabet)]
	}
	return string(code), nil
}

// GenerateDeviceCode returns 32 random bytes as lowercase hex. The length and
// alphabet never overlap with a user code.
func GenerateDeviceCode() (string, error) {
	buf := make([]byte, deviceCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// NormalizeUserCode uppercases the input and strips hyphens and whitespace.
// It fails when the result is not a well-formed user code.
func NormalizeUserCode(input string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(input) {
		switch {
		case r == '-' || r == ' ' || r == '\t':
			continue
		case strings.ContainsRune(userCodeAlphabet, r):
			b.WriteRune(r)
		default:
			return "", ErrInvalidUserCode
		}
	}
	if b.Len() != UserCodeLength {
		return "", ErrInvalidUserCode
	}
	return b.String(), nil
}

// FormatUserCode renders a normalized code as XXXX-XXXX for display
func FormatUserCode(code string) string {
	if len(code) != UserCodeLength {
		return code
	}
	half := UserCodeLength / 2
	return code[:half] + "-" + code[half:]
}
