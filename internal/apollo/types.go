package apollo

import "strings"

// Organization is the employer attached to a person record.
type Organization struct {
	Name       string `json:"name"`
	WebsiteURL string `json:"website_url"`
}

// Candidate is a person record returned by people search or match.
type Candidate struct {
	ID           string        `json:"id"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Email        *string       `json:"email"`
	EmailStatus  string        `json:"email_status"` // verified, guessed, unavailable or empty
	LinkedInURL  *string       `json:"linkedin_url"`
	PhotoURL     *string       `json:"photo_url"`
	Organization *Organization `json:"organization"`
	Headline     *string       `json:"headline"`
	City         *string       `json:"city"`
	State        *string       `json:"state"`
	Country      *string       `json:"country"`
	Seniority    *string       `json:"seniority"`
	Departments  []string      `json:"departments"`
}

// HasEmail reports whether the candidate carries a non-empty email.
func (c Candidate) HasEmail() bool {
	return c.Email != nil && strings.TrimSpace(*c.Email) != ""
}

// DisplayName returns Name, or first and last name joined when Name is empty.
func (c Candidate) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Location returns "City, State" when both are present, otherwise whichever is set.
func (c Candidate) Location() string {
	city, state := deref(c.City), deref(c.State)
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	default:
		return state
	}
}

// SearchParams narrows a people search to hiring contacts at one company.
type SearchParams struct {
	CompanyDomain   string
	CompanyName     string
	Titles          []string // Defaults to DefaultTitles
	SeniorityLevels []string // Defaults to DefaultSeniorities
	Limit           int      // Defaults to DefaultLimit
}

// EmailVerification is the deliverability verdict for an address.
type EmailVerification struct {
	Status     string  `json:"status"` // valid, invalid or unknown
	Confidence float64 `json:"confidence"`
}

// DefaultTitles are the job titles searched when none are given.
var DefaultTitles = []string{
	"recruiter",
	"talent acquisition",
	"hiring manager",
	"hr manager",
	"people operations",
	"talent partner",
	"sourcer",
	"recruitment coordinator",
}

// DefaultSeniorities are the seniority levels searched when none are given.
var DefaultSeniorities = []string{"senior", "manager", "director", "vp", "c_suite"}

// DefaultLimit is the page size used when SearchParams.Limit is not positive.
const DefaultLimit = 10

type searchRequest struct {
	OrganizationDomains  []string `json:"organization_domains"`
	PersonTitles         []string `json:"person_titles"`
	PersonSeniorities    []string `json:"person_seniorities"`
	ContactEmailStatus   []string `json:"contact_email_status"`
	Page                 int      `json:"page"`
	PerPage              int      `json:"per_page"`
	RevealPersonalEmails bool     `json:"reveal_personal_emails"`
}

type searchResponse struct {
	People []Candidate `json:"people"`
}

type matchRequest struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	OrganizationName     string `json:"organization_name"`
	RevealPersonalEmails bool   `json:"reveal_personal_emails"`
}

type matchResponse struct {
	Person *Candidate `json:"person"`
}

type emailStatusRequest struct {
	Email string `json:"email"`
}

type emailStatusResponse struct {
	EmailStatus string `json:"email_status"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
