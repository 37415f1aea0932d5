package refcode

import (
	"strings"

	"github.com/google/uuid"
)

// Length of a generated referral code
const Length = 8

// Generate returns a new upper-case referral code
func Generate() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:Length])
}

// Normalize trims and upper-cases a user supplied code
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
