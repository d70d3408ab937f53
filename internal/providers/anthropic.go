package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
)

const anthropicAPIVersion = "2023-06-01"

// Anthropic speaks the messages API.
type Anthropic struct {
	apiKey  string
	model   string
	baseURL string
	client  *resty.Client
	logger  hclog.Logger
}

func newAnthropic(opts Options, logger hclog.Logger) *Anthropic {
	return &Anthropic{
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  newClient(opts, logger),
		logger:  logger.Named("anthropic"),
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	body := anthropicRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    req.SystemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: req.UserPrompt}},
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	var result anthropicResponse
	a.logger.Debug("sending message", "model", model, "prompt_bytes", len(req.UserPrompt))
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("x-api-key", a.apiKey).
		SetHeader("anthropic-version", anthropicAPIVersion).
		SetBody(body).
		SetResult(&result).
		Post(a.baseURL + "/v1/messages")
	if err != nil {
		return ReviewResponse{}, fmt.Errorf("anthropic request: %w", err)
	}
	if resp.IsError() {
		return ReviewResponse{}, statusError("anthropic", resp)
	}

	var text strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return ReviewResponse{}, fmt.Errorf("anthropic: empty text content in response")
	}
	if result.Model != "" {
		model = result.Model
	}
	return ReviewResponse{
		Content:   text.String(),
		Model:     model,
		TokensIn:  result.Usage.InputTokens,
		TokensOut: result.Usage.OutputTokens,
	}, nil
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Model   string                  `json:"model"`
	Content []anthropicContentBlock `json:"content"`
	Usage   anthropicUsage          `json:"usage"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
