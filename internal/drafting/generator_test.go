package drafting

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pathfinder/internal/llm"
)

type fakeClient struct {
	response string
	err      error
	prompts  []string
	opts     llm.GenerateOptions
}

func (f *fakeClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier, opts ...llm.GenerateOption) (string, error) {
	return f.GenerateJSON(ctx, prompt, tier, opts...)
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier, opts ...llm.GenerateOption) (string, error) {
	f.prompts = append(f.prompts, prompt)
	for _, opt := range opts {
		opt(&f.opts)
	}
	return f.response, f.err
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "gemini-test" }
func (f *fakeClient) Close() error                  { return nil }

func testParams() Params {
	return Params{
		RecipientName:     "Dana Whitfield",
		RecipientTitle:    "Technical Recruiter",
		RecipientResearch: "Research on Dana Whitfield:\n- Current Role: Technical Recruiter",
		CompanyName:       "Acme",
		JobTitle:          "Software Engineering Intern",
		JobDescription:    strings.Repeat("x", 800),
		Sender:            Sender{Name: "Sam Lee", School: "State University", Major: "Computer Science", Skills: []string{"Go", "SQL"}},
	}
}

const goodResponse = `{
  "subject": "Acme platform internship question",
  "body": "Hi Dana,\n\nI saw that your team recently grew the platform group and I would love to hear how interns contribute.",
  "personalizations": {
    "specificMention": "platform group growth",
    "relevantSkill": "Go",
    "companyConnection": "Acme platform"
  }
}`

func TestGenerateEmail_ValidOutput(t *testing.T) {
	client := &fakeClient{response: "```json\n" + goodResponse + "\n```"}
	g := New(client)

	email := g.GenerateEmail(context.Background(), testParams())

	assert.False(t, email.Fallback)
	assert.Equal(t, "Acme platform internship question", email.Subject)
	assert.True(t, strings.HasPrefix(email.Body, "Hi Dana,"))
	assert.Equal(t, "Go", email.Personalizations.RelevantSkill)

	require.NotNil(t, client.opts.Temperature)
	assert.InDelta(t, 0.7, *client.opts.Temperature, 1e-6)
	assert.Equal(t, int32(1500), client.opts.MaxOutputTokens)
}

func TestGenerateEmail_FallsBack(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{"api error", "", errors.New("quota exceeded")},
		{"preamble", "Sure! Here is the email:\n" + goodResponse, nil},
		{"missing field", `{"subject": "Hello there", "body": "A body that is long enough to pass."}`, nil},
		{"not json", "Dear Dana, ...", nil},
		{"forbidden phrase", strings.Replace(goodResponse, "I saw that", "I hope this email finds you well. I saw that", 1), nil},
		{"placeholder", strings.Replace(goodResponse, "Hi Dana", "Hi [Recipient Name]", 1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(&fakeClient{response: tt.response, err: tt.err})
			p := testParams()

			email := g.GenerateEmail(context.Background(), p)

			assert.True(t, email.Fallback)
			assert.Equal(t, Fallback(p), email)
		})
	}
}

func TestGenerateEmail_NilClient(t *testing.T) {
	g := New(nil)
	assert.Equal(t, TemplateModel, g.Model())

	email := g.GenerateEmail(context.Background(), testParams())
	assert.True(t, email.Fallback)
}

func TestModel(t *testing.T) {
	assert.Equal(t, "gemini-test", New(&fakeClient{}).Model())
}

func TestFallback(t *testing.T) {
	email := Fallback(testParams())

	assert.Equal(t, "Interest in Software Engineering Intern at Acme", email.Subject)
	assert.True(t, strings.HasPrefix(email.Body, "Hi Dana,\n\nI'm Sam Lee, currently studying Computer Science and very interested in the Software Engineering Intern position at Acme."))
	assert.Contains(t, email.Body, "Given your role as Technical Recruiter")
	assert.True(t, strings.HasSuffix(email.Body, "Best regards,\nSam Lee"))
	assert.Equal(t, Personalizations{
		SpecificMention:   "Technical Recruiter",
		RelevantSkill:     "General interest",
		CompanyConnection: "Acme",
	}, email.Personalizations)
}

func TestFallback_NoSenderProfile(t *testing.T) {
	p := testParams()
	p.Sender = Sender{}

	email := Fallback(p)

	assert.Contains(t, email.Body, "I'm Student, currently a student and very interested")
	assert.True(t, strings.HasSuffix(email.Body, "Best regards,\nStudent"))
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt(testParams())
	require.NoError(t, err)

	assert.Contains(t, prompt, "Sam Lee, studying Computer Science at State University")
	assert.Contains(t, prompt, "Skills: Go, SQL")
	assert.Contains(t, prompt, "Dana Whitfield, Technical Recruiter")
	assert.Contains(t, prompt, "Acme, hiring for Software Engineering Intern")
	assert.Contains(t, prompt, strings.Repeat("x", 500))
	assert.NotContains(t, prompt, strings.Repeat("x", 501))
	assert.NotContains(t, prompt, "{{.")
}

func TestFindForbiddenPhrases(t *testing.T) {
	found := findForbiddenPhrases("i HOPE this email finds you well. To whom it may concern", DefaultForbiddenPhrases)
	assert.Equal(t, []string{"I hope this email finds you well", "To whom it may concern"}, found)

	assert.Nil(t, findForbiddenPhrases("Hello Dana", DefaultForbiddenPhrases))
	assert.Nil(t, findForbiddenPhrases("anything", nil))
}

func TestHasUnfilledPlaceholder(t *testing.T) {
	assert.True(t, hasUnfilledPlaceholder("Best,\n[Your Name]"))
	assert.False(t, hasUnfilledPlaceholder("See [1] for details"))
}
