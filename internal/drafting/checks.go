package drafting

import (
	"regexp"
	"strings"
)

// DefaultForbiddenPhrases are stock lines that make an email read like a template.
var DefaultForbiddenPhrases = []string{
	"I hope this email finds you well",
	"I hope this message finds you well",
	"To whom it may concern",
	"Dear Sir or Madam",
}

// unfilledPlaceholder matches bracketed slots a model sometimes leaves behind,
// e.g. "[Your Name]" or "[Recipient]".
var unfilledPlaceholder = regexp.MustCompile(`(?i)\[(your|recipient|company|name|insert)[^\]]*\]`)

// findForbiddenPhrases returns the phrases present in text, case-insensitively,
// each reported once in its original spelling.
func findForbiddenPhrases(text string, phrases []string) []string {
	if len(phrases) == 0 {
		return nil
	}

	normalizedText := strings.ToLower(text)

	var found []string
	seen := make(map[string]bool)
	for _, phrase := range phrases {
		normalized := strings.ToLower(strings.TrimSpace(phrase))
		if normalized == "" || seen[normalized] {
			continue
		}
		if strings.Contains(normalizedText, normalized) {
			found = append(found, phrase)
			seen[normalized] = true
		}
	}
	return found
}

// hasUnfilledPlaceholder reports whether text still contains a template slot.
func hasUnfilledPlaceholder(text string) bool {
	return unfilledPlaceholder.MatchString(text)
}
