package email

import (
	"log/slog"
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidAddress reports whether addr is a bare, well-formed mailbox address.
func ValidAddress(addr string) bool {
	return addressPattern.MatchString(addr)
}

// FilterValid trims and validates addrs, dropping malformed entries with a
// warning and silently dropping case-insensitive duplicates. Addresses already
// present in seen are treated as duplicates; accepted ones are added to it.
func FilterValid(logger *slog.Logger, field string, addrs []string, seen map[string]struct{}) []string {
	if seen == nil {
		seen = make(map[string]struct{})
	}
	valid := make([]string, 0, len(addrs))
	for _, raw := range addrs {
		addr := strings.TrimSpace(raw)
		if !ValidAddress(addr) {
			logger.Warn("invalid email address skipped", "field", field, "address", raw)
			continue
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			logger.Debug("duplicate email address skipped", "field", field, "address", addr)
			continue
		}
		seen[key] = struct{}{}
		valid = append(valid, addr)
	}
	return valid
}
