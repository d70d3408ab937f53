package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
)

// ReviewRequest is one completion call.
type ReviewRequest struct {
	// Model overrides the provider's default model when set.
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// ReviewResponse is the raw model output plus usage.
type ReviewResponse struct {
	Content   string
	Model     string
	TokensIn  int
	TokensOut int
}

// Reviewer is the provider abstraction.
type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error)
	Name() string
}

// Options configures a provider client.
type Options struct {
	Name         string
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

const defaultMaxTokens = 4096

var defaultBaseURLs = map[string]string{
	"openai":     "https://api.openai.com/v1",
	"openrouter": "https://openrouter.ai/api/v1",
	"ollama":     "http://localhost:11434/v1",
	"anthropic":  "https://api.anthropic.com",
}

// Names lists the supported providers.
var Names = []string{"openai", "anthropic", "openrouter", "ollama"}

// New creates a provider by name. Hosted providers require an API key.
func New(opts Options, logger hclog.Logger) (Reviewer, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURLs[opts.Name]
	}
	if opts.Model == "" {
		opts.Model = DefaultModels(opts.Name).Tier1
	}
	switch opts.Name {
	case "openai", "openrouter":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("%w: no API key configured for %s", ErrAuth, opts.Name)
		}
		return newOpenAI(opts, logger), nil
	case "ollama":
		return newOpenAI(opts, logger), nil
	case "anthropic":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("%w: no API key configured for anthropic", ErrAuth)
		}
		return newAnthropic(opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", opts.Name)
	}
}
