package footage

import "strings"

// BlockedKeyword records one rejected candidate and the banned
// substring that matched it.
type BlockedKeyword struct {
	Keyword string
	Matched string
}

// FilterKeywords removes every candidate containing a banned substring
// (case-insensitive). The match is deliberately a substring check, not a
// token check, so compound words may over-block — callers treat an
// all-blocked result as a recoverable condition and fall back to
// category defaults.
func FilterKeywords(candidates []string, banned []string) ([]string, []BlockedKeyword) {
	var safe []string
	var blocked []BlockedKeyword

	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		hit := ""
		for _, b := range banned {
			if b == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(b)) {
				hit = b
				break
			}
		}
		if hit != "" {
			blocked = append(blocked, BlockedKeyword{Keyword: candidate, Matched: hit})
		} else {
			safe = append(safe, candidate)
		}
	}

	return safe, blocked
}
