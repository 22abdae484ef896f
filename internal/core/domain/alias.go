package domain

import "regexp"

var aliasPattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9-]{0,126}[a-z0-9]$`)

// NormalizeAliases validates aliases and drops duplicates, keeping the first
// occurrence of each. A nil or empty input yields an empty, non-nil slice.
func NormalizeAliases(aliases []string) ([]string, error) {
	out := make([]string, 0, len(aliases))
	seen := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		if !aliasPattern.MatchString(a) {
			return nil, ErrInvalidAlias
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}

// isVersionNumber reports whether selector addresses a version id rather than an alias.
func isVersionNumber(selector string) bool {
	if selector == "" {
		return false
	}
	for _, r := range selector {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
