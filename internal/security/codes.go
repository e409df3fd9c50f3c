package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strconv"
)

// OTPDigits is the fixed width of one-time codes.
const OTPDigits = 6

// otpFloor and otpSpan bound codes to [100000, 999999] so the leading digit is never zero.
var (
	otpFloor = big.NewInt(100000)
	otpSpan  = big.NewInt(900000)
)

// GenerateOTPCode returns a uniformly random 6-digit code whose first digit is 1-9.
func GenerateOTPCode() (string, error) {
	return generateOTPCode(rand.Reader)
}

func generateOTPCode(r io.Reader) (string, error) {
	n, err := rand.Int(r, otpSpan)
	if err != nil {
		return "", fmt.Errorf("generate otp code: %w", err)
	}
	n.Add(n, otpFloor)
	return strconv.FormatInt(n.Int64(), 10), nil
}

// IsOTPCodeShape reports whether code is exactly OTPDigits ASCII digits.
func IsOTPCodeShape(code string) bool {
	if len(code) != OTPDigits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// HashSecret returns the hex SHA-256 of a code or bearer token.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// SecretMatchesHash hashes candidate and compares it with storedHash in constant time.
func SecretMatchesHash(candidate, storedHash string) bool {
	candidateHash := HashSecret(candidate)
	return subtle.ConstantTimeCompare([]byte(candidateHash), []byte(storedHash)) == 1
}
