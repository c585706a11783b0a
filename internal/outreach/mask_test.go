package outreach

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane.doe@acme.com", "ja***e@acme.com"},
		{"abc@example.com", "ab***c@example.com"},
		{"ab@example.com", "a***@example.com"},
		{"a@example.com", "a***@example.com"},
		{"@example.com", "***@example.com"},
		{"not-an-email", "***"},
		{"", "***"},
		{"weird@name@host.io", "we***e@host.io"},
		{"josé@acme.com", "jo***é@acme.com"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskEmail(tt.email))
		})
	}
}

func TestMaskEmailPtr(t *testing.T) {
	assert.Nil(t, MaskEmailPtr(nil))

	email := "jane@acme.com"
	masked := MaskEmailPtr(&email)
	if assert.NotNil(t, masked) {
		assert.Equal(t, "ja***e@acme.com", *masked)
	}
	assert.Equal(t, "jane@acme.com", email)
}

func TestMaskEmail_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("domain is preserved and local part never leaks", prop.ForAll(
		func(local, domain string) bool {
			masked := MaskEmail(local + "@" + domain + ".com")
			if !strings.HasSuffix(masked, "@"+domain+".com") {
				return false
			}
			shown := strings.TrimSuffix(masked, "@"+domain+".com")
			if len(local) >= 4 && strings.Contains(shown, local) {
				return false
			}
			return strings.Contains(masked, "***")
		},
		gen.AlphaString(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
