package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/craftkart/identity/internal/models"
)

// GenerateVerificationCode generates a random numeric verification code of
// the configured length.
func GenerateVerificationCode() string {
	code := make([]byte, models.VerificationCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic(err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code)
}
