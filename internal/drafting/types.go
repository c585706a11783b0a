// Package drafting writes personalized outreach emails with an LLM and falls
// back to a fixed template whenever the model output cannot be trusted.
package drafting

import "strings"

// DefaultSenderName signs emails when no sender profile is available.
const DefaultSenderName = "Student"

// Sender is the student the email is written for.
type Sender struct {
	Name   string
	Email  string
	School string
	Major  string
	Skills []string
}

// DisplayName returns the sender name or DefaultSenderName.
func (s Sender) DisplayName() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return DefaultSenderName
}

// Params describes one email to draft.
type Params struct {
	RecipientName      string
	RecipientTitle     string
	RecipientResearch  string
	CompanyName        string
	CompanyDescription string
	JobTitle           string
	JobDescription     string
	Sender             Sender
}

// RecipientFirstName returns the first word of the recipient name.
func (p Params) RecipientFirstName() string {
	if fields := strings.Fields(p.RecipientName); len(fields) > 0 {
		return fields[0]
	}
	return "there"
}

// Personalizations records what the email referenced.
type Personalizations struct {
	SpecificMention   string `json:"specificMention"`
	RelevantSkill     string `json:"relevantSkill"`
	CompanyConnection string `json:"companyConnection"`
}

// Email is a drafted email.
type Email struct {
	Subject          string           `json:"subject"`
	Body             string           `json:"body"`
	Personalizations Personalizations `json:"personalizations"`

	// Fallback is set when the template was used instead of model output.
	Fallback bool `json:"-"`
}
