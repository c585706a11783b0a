package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known public profile host.
type Platform string

const (
	// PlatformLinkedIn is a LinkedIn member profile
	PlatformLinkedIn Platform = "linkedin"
	// PlatformGitHub is a GitHub user page
	PlatformGitHub Platform = "github"
	// PlatformUnknown is any other page, usually a personal site
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the profile platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)
	switch {
	case host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com"):
		return PlatformLinkedIn
	case host == "github.com" || host == "www.github.com":
		return PlatformGitHub
	}
	return PlatformUnknown
}

// LinkedInHandle returns the member slug of a /in/<handle> URL, or "".
func LinkedInHandle(urlStr string) string {
	if DetectPlatform(urlStr) != PlatformLinkedIn {
		return ""
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "in" && parts[1] != "" {
		return parts[1]
	}
	return ""
}

// ProfileSelectors lists CSS selectors for each profile field, tried in order.
type ProfileSelectors struct {
	Name     []string
	Headline []string
	Location []string
	Photo    []string // Elements whose src attribute holds the photo
	Summary  []string
}

// PlatformProfileSelectors returns field selectors for a platform.
func PlatformProfileSelectors(platform Platform) ProfileSelectors {
	switch platform {
	case PlatformLinkedIn:
		return ProfileSelectors{
			Name:     []string{"h1.top-card-layout__title", "h1.text-heading-xlarge", "h1"},
			Headline: []string{".top-card-layout__headline", ".text-body-medium", "h2"},
			Location: []string{".top-card__subline-item", ".top-card-layout__first-subline span", "span.text-body-small"},
			Photo:    []string{"img.top-card__profile-image", "img[class*='profile-photo']", "img.pv-top-card-profile-picture__image"},
			Summary:  []string{".core-section-container__content .summary", "section.summary p", ".pv-about__summary-text"},
		}
	case PlatformGitHub:
		return ProfileSelectors{
			Name:     []string{".vcard-fullname", "h1"},
			Headline: []string{".user-profile-bio", ".p-note"},
			Location: []string{"[itemprop='homeLocation']", ".p-label"},
			Photo:    []string{"img.avatar-user", "img.avatar"},
			Summary:  []string{".user-profile-bio", "article.markdown-body"},
		}
	default:
		return ProfileSelectors{
			Name:     []string{"h1", "title"},
			Headline: []string{"h2", "meta[name='description']"},
			Location: []string{"[itemprop='address']", ".location"},
			Photo:    []string{"img[class*='avatar']", "img[class*='profile']"},
			Summary:  []string{".about", "#about", "main p", "article p"},
		}
	}
}

// PlatformNoiseSelectors returns elements to drop before reading profile text.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		"form",
		".cookie-banner",
		".cookie-consent",
		".gdpr-notice",
		".social-share",
		".share-buttons",
	}

	switch platform {
	case PlatformLinkedIn:
		return append(common,
			".authwall",
			".join-form",
			".contextual-sign-in-modal",
			".top-card-layout__cta-container",
			"aside",
		)
	case PlatformGitHub:
		return append(common,
			".js-pinned-items-reorder-container",
			".Layout-sidebar .border-top",
		)
	default:
		return common
	}
}
