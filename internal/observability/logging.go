package observability

import (
	"strings"

	"github.com/craftkart/identity/internal/logging"
)

// Logger returns the global safe logger instance
func Logger() *logging.SafeLogger {
	return logging.Logger
}

// MaskIdentifier masks an email address or phone number for logging.
// Verification identifiers are personal data and must never appear in
// plain text in log output.
func MaskIdentifier(identifier string) string {
	if at := strings.Index(identifier, "@"); at > 0 {
		local := identifier[:at]
		domain := identifier[at:]
		if len(local) <= 2 {
			return "**" + domain
		}
		return local[:2] + strings.Repeat("*", len(local)-2) + domain
	}

	// Phone number: keep country code and last two digits
	if len(identifier) > 6 {
		return identifier[:3] + strings.Repeat("*", len(identifier)-5) + identifier[len(identifier)-2:]
	}
	return strings.Repeat("*", len(identifier))
}
