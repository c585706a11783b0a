package outreach

import "strings"

// MaskEmail hides most of an address's local part for display:
// "jane.doe@acme.com" becomes "ja***e@acme.com". The domain is kept as is.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return "***"
	}

	local, domain := []rune(email[:at]), email[at:]
	switch {
	case len(local) >= 3:
		return string(local[:2]) + "***" + string(local[len(local)-1]) + domain
	case len(local) > 0:
		return string(local[0]) + "***" + domain
	default:
		return "***" + domain
	}
}

// MaskEmailPtr masks a nullable address, returning nil for nil.
func MaskEmailPtr(email *string) *string {
	if email == nil {
		return nil
	}
	masked := MaskEmail(*email)
	return &masked
}
