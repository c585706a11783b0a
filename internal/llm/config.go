// Package llm provides the model configuration and client abstraction used for drafting.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short classification-style prompts
	TierLite ModelTier = "lite"
	// TierStandard is for structured writing such as outreach drafts
	TierStandard ModelTier = "standard"
	// TierAdvanced is reserved for longer reasoning prompts
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string

	// Temperature applies when a call does not set its own.
	Temperature float32
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.1,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of c with model set for tier.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+1),
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return out
}

// GenerateOptions tune a single generation call.
type GenerateOptions struct {
	Temperature     *float32
	MaxOutputTokens int32
}

// GenerateOption sets a GenerateOptions field.
type GenerateOption func(*GenerateOptions)

// WithTemperature overrides the configured temperature for one call.
func WithTemperature(t float32) GenerateOption {
	return func(o *GenerateOptions) { o.Temperature = &t }
}

// WithMaxOutputTokens caps the response length.
func WithMaxOutputTokens(n int32) GenerateOption {
	return func(o *GenerateOptions) { o.MaxOutputTokens = n }
}

func (c *Config) resolve(opts []GenerateOption) GenerateOptions {
	o := GenerateOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Temperature == nil {
		t := c.Temperature
		o.Temperature = &t
	}
	return o
}
