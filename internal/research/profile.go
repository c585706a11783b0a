package research

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/pathfinder/internal/fetch"
)

// Profile is the structured view of a public profile page.
type Profile struct {
	URL        string       `json:"url"`
	FullName   string       `json:"full_name"`
	Headline   string       `json:"headline"`
	Location   string       `json:"location"`
	PhotoURL   string       `json:"photo_url"`
	Summary    string       `json:"summary"`
	Experience []Experience `json:"experience,omitempty"`
}

// Experience is one listed role.
type Experience struct {
	Title   string `json:"title"`
	Company string `json:"company"`
}

// IsEmpty reports whether nothing useful was parsed.
func (p *Profile) IsEmpty() bool {
	return p == nil || (p.FullName == "" && p.Headline == "" && p.Summary == "")
}

const maxSummaryRunes = 1200

// ParseProfile extracts profile fields from HTML using the platform's selectors.
// Open Graph tags fill in the name, headline and photo when the page markup has none.
func ParseProfile(html string, platform fetch.Platform) (*Profile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	noise := fetch.PlatformNoiseSelectors(platform)
	doc.Find("script, style, noscript").Remove()
	doc.Find(strings.Join(noise, ", ")).Remove()

	sel := fetch.PlatformProfileSelectors(platform)
	p := &Profile{
		FullName: firstText(doc, sel.Name),
		Headline: firstText(doc, sel.Headline),
		Location: firstText(doc, sel.Location),
		PhotoURL: firstAttr(doc, sel.Photo, "src"),
		Summary:  truncateRunes(firstText(doc, sel.Summary), maxSummaryRunes),
	}

	if p.FullName == "" {
		p.FullName = metaContent(doc, "og:title")
	}
	if p.Headline == "" {
		p.Headline = metaContent(doc, "og:description")
	}
	if p.PhotoURL == "" {
		p.PhotoURL = metaContent(doc, "og:image")
	}

	if platform == fetch.PlatformLinkedIn {
		p.FullName = strings.TrimSuffix(p.FullName, " | LinkedIn")
		p.Experience = linkedInExperience(doc)
	}
	return p, nil
}

func linkedInExperience(doc *goquery.Document) []Experience {
	var out []Experience
	doc.Find("section.experience li, .experience__list li, li.experience-item").Each(func(_ int, s *goquery.Selection) {
		title := squash(s.Find(".experience-item__title, .profile-section-card__title, h3").First().Text())
		company := squash(s.Find(".experience-item__subtitle, .profile-section-card__subtitle, h4").First().Text())
		if title != "" {
			out = append(out, Experience{Title: title, Company: company})
		}
	})
	return out
}

// firstText returns the first non-empty text among selectors.
// Meta elements yield their content attribute.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := s.Text()
			if goquery.NodeName(s) == "meta" {
				text, _ = s.Attr("content")
			}
			if text = squash(text); text != "" {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func firstAttr(doc *goquery.Document, selectors []string, attr string) string {
	for _, selector := range selectors {
		if v, ok := doc.Find(selector).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func metaContent(doc *goquery.Document, property string) string {
	v, _ := doc.Find("meta[property='" + property + "']").First().Attr("content")
	return squash(v)
}

// squash collapses runs of whitespace into single spaces.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
