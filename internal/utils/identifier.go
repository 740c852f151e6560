package utils

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/craftkart/identity/internal/models"
)

// NormalizeIdentifier validates and canonicalizes an identifier for the
// given channel. Phone numbers come back in E.164 form, emails lowercased.
// Normalization failures return models.ErrInvalidIdentifier; nothing is
// ever sent over the wire un-normalized.
func NormalizeIdentifier(channel models.Channel, raw string) (string, error) {
	if channel == models.ChannelEmail {
		return NormalizeEmail(raw)
	}
	return NormalizePhone(raw)
}

// NormalizePhone canonicalizes an Indian mobile number to +91XXXXXXXXXX.
// Accepts optional non-digit separators and an optional leading "91" or
// trunk "0"; anything that does not reduce to exactly 10 national digits
// is rejected.
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	national := digits.String()
	switch {
	case len(national) == 12 && strings.HasPrefix(national, "91"):
		national = national[2:]
	case len(national) == 11 && strings.HasPrefix(national, "0"):
		national = national[1:]
	}

	if len(national) != 10 {
		return "", fmt.Errorf("%w: expected 10 national digits, got %d", models.ErrInvalidIdentifier, len(national))
	}

	full := "+91" + national
	num, err := phonenumbers.Parse(full, "")
	if err != nil {
		return "", fmt.Errorf("%w: %s", models.ErrInvalidIdentifier, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: not a valid Indian number", models.ErrInvalidIdentifier)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// NormalizeEmail canonicalizes an email address: trimmed, lowercased,
// and syntactically valid per RFC 5322.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: empty email", models.ErrInvalidIdentifier)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", fmt.Errorf("%w: %s", models.ErrInvalidIdentifier, err)
	}
	// Reject display-name forms like "Name <a@b.com>"
	if addr.Address != email {
		return "", fmt.Errorf("%w: not a bare address", models.ErrInvalidIdentifier)
	}

	return email, nil
}
