package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
)

// OpenAI speaks the chat-completions format. OpenRouter and Ollama share it.
type OpenAI struct {
	name    string
	apiKey  string
	model   string
	baseURL string
	client  *resty.Client
	logger  hclog.Logger
}

func newOpenAI(opts Options, logger hclog.Logger) *OpenAI {
	return &OpenAI{
		name:    opts.Name,
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  newClient(opts, logger),
		logger:  logger.Named(opts.Name),
	}
}

func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	body := openaiRequest{
		Model: model,
		Messages: []openaiMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	var result openaiResponse
	r := o.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result)
	if o.apiKey != "" {
		r.SetAuthToken(o.apiKey)
	}
	if o.name == "openrouter" {
		r.SetHeader("X-Title", "sift")
	}

	o.logger.Debug("sending completion", "model", model, "prompt_bytes", len(req.UserPrompt))
	resp, err := r.Post(o.baseURL + "/chat/completions")
	if err != nil {
		return ReviewResponse{}, fmt.Errorf("%s request: %w", o.name, err)
	}
	if resp.IsError() {
		return ReviewResponse{}, statusError(o.name, resp)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return ReviewResponse{}, fmt.Errorf("%s: empty completion", o.name)
	}

	if result.Model != "" {
		model = result.Model
	}
	return ReviewResponse{
		Content:   result.Choices[0].Message.Content,
		Model:     model,
		TokensIn:  result.Usage.PromptTokens,
		TokensOut: result.Usage.CompletionTokens,
	}, nil
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}
