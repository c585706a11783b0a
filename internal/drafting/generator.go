package drafting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/pathfinder/internal/llm"
	"github.com/jonathan/pathfinder/internal/observability"
	"github.com/jonathan/pathfinder/internal/prompts"
	"github.com/jonathan/pathfinder/internal/schemas"
)

const (
	// TemplateModel is reported as the author when no LLM client is configured.
	TemplateModel = "template"

	defaultTemperature     = 0.7
	defaultMaxOutputTokens = 1500
	maxJobDescriptionRunes = 500
	providerName           = "gemini"
)

// Generator drafts outreach emails. It is safe for concurrent use when its
// llm.Client is.
type Generator struct {
	client    llm.Client
	tier      llm.ModelTier
	forbidden []string
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) { g.logger = observability.OrNop(logger) }
}

// WithMetrics records model call outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithTier selects the model tier used for drafting.
func WithTier(tier llm.ModelTier) Option {
	return func(g *Generator) { g.tier = tier }
}

// WithForbiddenPhrases replaces DefaultForbiddenPhrases.
func WithForbiddenPhrases(phrases []string) Option {
	return func(g *Generator) { g.forbidden = phrases }
}

// New creates a Generator. A nil client makes every draft use the template.
func New(client llm.Client, opts ...Option) *Generator {
	g := &Generator{
		client:    client,
		tier:      llm.TierStandard,
		forbidden: DefaultForbiddenPhrases,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the name recorded as the email's author.
func (g *Generator) Model() string {
	if g.client == nil {
		return TemplateModel
	}
	return g.client.GetModel(g.tier)
}

// GenerateEmail drafts one email. It never fails: API errors, output that does
// not match the email schema and output containing stock phrases all produce
// the template email instead.
func (g *Generator) GenerateEmail(ctx context.Context, p Params) Email {
	if g.client == nil {
		return Fallback(p)
	}

	logger := g.logger.With(zap.String("recipient", p.RecipientName), zap.String("company", p.CompanyName))

	prompt, err := BuildPrompt(p)
	if err != nil {
		logger.Error("failed to build drafting prompt", zap.Error(err))
		g.metrics.UpstreamCall(providerName, "fallback")
		return Fallback(p)
	}

	raw, err := g.client.GenerateJSON(ctx, prompt, g.tier,
		llm.WithTemperature(defaultTemperature),
		llm.WithMaxOutputTokens(defaultMaxOutputTokens))
	if err != nil {
		logger.Warn("email generation failed, using template", zap.Error(err))
		g.metrics.UpstreamCall(providerName, "error")
		return Fallback(p)
	}

	email, err := g.decode(raw)
	if err != nil {
		logger.Warn("model output rejected, using template", zap.Error(err))
		g.metrics.UpstreamCall(providerName, "fallback")
		return Fallback(p)
	}

	g.metrics.UpstreamCall(providerName, "ok")
	logger.Debug("email generated",
		zap.String("subject", email.Subject),
		zap.Int("body_length", len(email.Body)))
	return email
}

// decode validates raw against the email schema and the content checks.
func (g *Generator) decode(raw string) (Email, error) {
	raw = llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.OutreachEmail, raw); err != nil {
		return Email{}, err
	}

	var email Email
	if err := json.Unmarshal([]byte(raw), &email); err != nil {
		return Email{}, fmt.Errorf("failed to decode email: %w", err)
	}
	email.Subject = strings.TrimSpace(email.Subject)
	email.Body = strings.TrimSpace(email.Body)

	text := email.Subject + "\n" + email.Body
	if found := findForbiddenPhrases(text, g.forbidden); len(found) > 0 {
		return Email{}, fmt.Errorf("email contains forbidden phrases: %s", strings.Join(found, ", "))
	}
	if hasUnfilledPlaceholder(text) {
		return Email{}, fmt.Errorf("email contains an unfilled placeholder")
	}
	return email, nil
}

// BuildPrompt renders the drafting prompt for p.
func BuildPrompt(p Params) (string, error) {
	description := strings.TrimSpace(p.CompanyDescription)
	if description == "" {
		var err error
		description, err = prompts.Render(prompts.OutreachFile, "company-description-fallback", map[string]string{
			"CompanyName": p.CompanyName,
			"JobTitle":    p.JobTitle,
		})
		if err != nil {
			return "", err
		}
	}

	skills := "not provided"
	if len(p.Sender.Skills) > 0 {
		skills = strings.Join(p.Sender.Skills, ", ")
	}

	research := strings.TrimSpace(p.RecipientResearch)
	if research == "" {
		research = "No research available"
	}

	return prompts.Render(prompts.OutreachFile, "draft-outreach-email", map[string]string{
		"StudentLine":        studentLine(p.Sender),
		"Skills":             skills,
		"JobTitle":           p.JobTitle,
		"CompanyName":        p.CompanyName,
		"RecipientName":      p.RecipientName,
		"RecipientTitle":     p.RecipientTitle,
		"CompanyDescription": description,
		"Research":           research,
		"JobDescription":     truncateRunes(p.JobDescription, maxJobDescriptionRunes),
	})
}

func studentLine(s Sender) string {
	line := s.DisplayName()
	if s.Major != "" {
		line += ", studying " + s.Major
	}
	if s.School != "" {
		line += " at " + s.School
	}
	return line
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Fallback returns the template email for p.
func Fallback(p Params) Email {
	sender := p.Sender.DisplayName()
	studying := "a student"
	if p.Sender.Major != "" {
		studying = "studying " + p.Sender.Major
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", p.RecipientFirstName())
	fmt.Fprintf(&body, "I'm %s, currently %s and very interested in the %s position at %s.\n\n", sender, studying, p.JobTitle, p.CompanyName)
	fmt.Fprintf(&body, "I've been following %s's work and am particularly impressed by your approach. ", p.CompanyName)
	fmt.Fprintf(&body, "Given your role as %s, I'd love to learn more about the team and the kind of projects interns work on.\n\n", p.RecipientTitle)
	body.WriteString("Would you have 15 minutes for a quick call to discuss the role and share advice on breaking into the industry?\n\n")
	body.WriteString("Thank you for considering!\n\n")
	fmt.Fprintf(&body, "Best regards,\n%s", sender)

	return Email{
		Subject: fmt.Sprintf("Interest in %s at %s", p.JobTitle, p.CompanyName),
		Body:    body.String(),
		Personalizations: Personalizations{
			SpecificMention:   p.RecipientTitle,
			RelevantSkill:     "General interest",
			CompanyConnection: p.CompanyName,
		},
		Fallback: true,
	}
}
