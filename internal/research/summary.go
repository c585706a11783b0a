package research

import (
	"fmt"
	"strings"
)

// GenerateResearchSummary renders a profile as the narrative stored on a contact.
// It is deterministic and makes no network calls.
func GenerateResearchSummary(profile *Profile, companyName, jobTitle string) string {
	if profile == nil {
		return FallbackSummary(companyName)
	}

	summary := profile.Summary
	if summary == "" {
		summary = "No summary available"
	}
	level := "Mid-level"
	if len(profile.Experience) > 5 {
		level = "Highly Experienced"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Research on %s:\n", orUnknown(profile.FullName))
	fmt.Fprintf(&b, "- Current Role: %s\n", orUnknown(profile.Headline))
	fmt.Fprintf(&b, "- Location: %s\n", orUnknown(profile.Location))
	fmt.Fprintf(&b, "- Professional Summary: %s\n", summary)
	fmt.Fprintf(&b, "- Relevant to %s %s position\n", companyName, jobTitle)
	fmt.Fprintf(&b, "- Experience level: %s", level)

	if len(profile.Experience) > 0 {
		b.WriteString("\n\nKey Points:")
		for i, exp := range profile.Experience {
			if i == 3 {
				break
			}
			if exp.Company != "" {
				fmt.Fprintf(&b, "\n%d. %s at %s", i+1, exp.Title, exp.Company)
			} else {
				fmt.Fprintf(&b, "\n%d. %s", i+1, exp.Title)
			}
		}
	}

	fmt.Fprintf(&b, "\n\nWhy they matter:\n- Active in recruiting/talent space at %s\n- Likely involved in hiring decisions for %s",
		companyName, jobTitle)
	return b.String()
}

// FallbackSummary is used when a contact could not be researched.
func FallbackSummary(companyName string) string {
	return "Professional at " + companyName
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
