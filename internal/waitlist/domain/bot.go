package domain

import "strings"

// IsBot rejects a record whose honeypot was filled or whose human check is unticked.
// No other heuristic is applied.
func IsBot(record SubmissionRecord) bool {
	if strings.TrimSpace(record.Honeypot) != "" {
		return true
	}
	return !record.Human
}
