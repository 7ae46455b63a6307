package db

import (
	"strings"

	"github.com/google/uuid"
)

// CanonicalID returns the lower-case hyphenated form of a storage identifier. Postgres
// rejects some forms uuid.Parse accepts (urn:uuid:, braces), so queries only see this form.
func CanonicalID(raw string) (string, bool) {
	u, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return u.String(), true
}
