// Package openai implements generate.Generator on top of the openai-go SDK.
// It talks either to Azure OpenAI (deployment-scoped URLs, api-key header)
// or to any OpenAI-compatible chat-completions endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/YanaYuan/chinese-pinyin-ime/pkg/generate"
)

// Provider is a chat-completions backed generate.Generator.
type Provider struct {
	client oai.Client
	model  string
}

type config struct {
	baseURL    string
	azureURL   string
	apiVersion string
	timeout    time.Duration
	maxRetries int
}

// Option configures a Provider.
type Option func(*config)

// WithBaseURL targets an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithAzure targets an Azure OpenAI resource. The model passed to New is
// used as the deployment name.
func WithAzure(endpoint, apiVersion string) Option {
	return func(c *config) {
		c.azureURL = endpoint
		c.apiVersion = apiVersion
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithMaxRetries sets how often the SDK retries failed requests.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		c.maxRetries = n
	}
}

// New creates a Provider. An empty key or model, or Azure mode without an
// endpoint, fails with generate.ErrConfigurationMissing.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, generate.Errorf(generate.ErrConfigurationMissing, 0, "openai: api key must not be empty")
	}
	if model == "" {
		return nil, generate.Errorf(generate.ErrConfigurationMissing, 0, "openai: model must not be empty")
	}

	cfg := &config{maxRetries: 2}
	for _, o := range opts {
		o(cfg)
	}

	var reqOpts []option.RequestOption
	switch {
	case cfg.apiVersion != "":
		if cfg.azureURL == "" {
			return nil, generate.Errorf(generate.ErrConfigurationMissing, 0, "openai: azure endpoint must not be empty")
		}
		reqOpts = append(reqOpts,
			azure.WithEndpoint(cfg.azureURL, cfg.apiVersion),
			azure.WithAPIKey(apiKey),
		)
	default:
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
		if cfg.baseURL != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
		}
	}
	reqOpts = append(reqOpts, option.WithMaxRetries(cfg.maxRetries))
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model}, nil
}

// Generate implements generate.Generator.
func (p *Provider) Generate(ctx context.Context, req generate.Request) (string, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", generate.Errorf(generate.ErrMalformedResponse, 0, "openai: empty choices in response")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", generate.Errorf(generate.ErrMalformedResponse, 0, "openai: empty message content")
	}
	return content, nil
}

func (p *Provider) buildParams(req generate.Request) (oai.ChatCompletionNewParams, error) {
	if len(req.Messages) == 0 {
		return oai.ChatCompletionNewParams{}, generate.Errorf(generate.ErrBadRequest, 0, "openai: request has no messages")
	}

	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		msg, err := convertMessage(m)
		if err != nil {
			return oai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, msg)
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if req.TopP != 0 {
		params.TopP = param.NewOpt(req.TopP)
	}
	return params, nil
}

func convertMessage(m generate.Message) (oai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case generate.RoleSystem:
		return oai.SystemMessage(m.Content), nil
	case generate.RoleUser:
		return oai.UserMessage(m.Content), nil
	case generate.RoleAssistant:
		return oai.AssistantMessage(m.Content), nil
	default:
		return oai.ChatCompletionMessageParamUnion{}, generate.Errorf(generate.ErrBadRequest, 0, "openai: unknown message role %q", m.Role)
	}
}

// mapError sorts SDK errors into the generate taxonomy.
func mapError(err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		kind := generate.ErrUpstreamFailure
		if apiErr.StatusCode == http.StatusBadRequest {
			kind = generate.ErrBadRequest
		}
		return &generate.GenerationError{Kind: kind, Status: apiErr.StatusCode, Err: err}
	}
	return &generate.GenerationError{Kind: generate.ErrUpstreamFailure, Err: fmt.Errorf("openai: chat completion: %w", err)}
}
