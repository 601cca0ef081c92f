package utils

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const CodeLength = 6

// GenerateCode returns a uniformly random numeric code of CodeLength digits.
func GenerateCode() (string, error) {
	var sb strings.Builder
	sb.Grow(CodeLength)
	ten := big.NewInt(10)
	for i := 0; i < CodeLength; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}

// HashCode hashes a one-time code before it is stored.
func HashCode(code string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	return string(b), err
}

func CheckCode(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// NewSessionID returns an opaque random identifier for a server-side session.
func NewSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
