package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/craftkart/identity/internal/models"
)

func TestGenerateVerificationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GenerateVerificationCode()
		assert.Len(t, code, models.VerificationCodeLength)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit", code)
		}
		seen[code] = true
	}

	// 100 draws from a million possibilities should not all collide
	assert.Greater(t, len(seen), 1)
}
