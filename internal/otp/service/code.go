package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

var codeSpace = big.NewInt(1000000)

// GenerateCode returns a 6-digit zero-padded OTP drawn uniformly from
// 000000-999999 using crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashCode returns a SHA-256 hash of the code, hex-encoded. Only the hash is
// persisted.
func HashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// CodeEqual performs constant-time comparison of the submitted code's hash
// with the stored hash.
func CodeEqual(submittedCode, storedHash string) bool {
	submittedHash := HashCode(submittedCode)
	return subtle.ConstantTimeCompare([]byte(submittedHash), []byte(storedHash)) == 1
}
