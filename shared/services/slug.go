package services

import "strings"

// DeriveRoleKey lowercases name, collapses every run of characters outside
// [a-z0-9] into one underscore and trims underscores from both ends.
func DeriveRoleKey(name string) string {
	var b strings.Builder
	pendingSep := false

	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}

	return b.String()
}
