package pulse

import (
	"regexp"
	"strings"
)

// Content that smells like off-platform contact exchange is rejected outright.
// These mirror the moderation policy for ephemeral local content: no links,
// no phone numbers, no email addresses.
var blockedContentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://`),
	regexp.MustCompile(`(?i)www\.`),
	regexp.MustCompile(`\b\d{3}[-. ]?\d{3}[-. ]?\d{4}\b`),
	regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`),
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// MaxContentLength bounds sanitized artifact content.
const MaxContentLength = 500

// SanitizeContent validates and normalizes user content for an artifact.
// It returns the cleaned content, or ErrContentBlocked / ErrContentLength.
// Both are validation-class failures surfaced as field errors, never faults.
func SanitizeContent(content string) (string, error) {
	for _, p := range blockedContentPatterns {
		if p.MatchString(content) {
			return "", ErrContentBlocked
		}
	}

	clean := strings.TrimSpace(whitespaceRun.ReplaceAllString(content, " "))
	if len(clean) < 1 || len(clean) > MaxContentLength {
		return "", ErrContentLength
	}
	return clean, nil
}
