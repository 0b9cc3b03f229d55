// Package llm talks to an OpenAI-compatible chat completions gateway.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/assessment"
)

var errEmptyCompletion = errors.New("empty completion")

type Client struct {
	client      openai.Client
	apiKey      string
	model       string
	temperature float64
}

var _ assessment.Completer = (*Client)(nil) // interface compliance check

// NewClient builds a gateway client; failed calls are never retried.
func NewClient(conf core.AIConfig) *Client {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		client: openai.NewClient(
			option.WithAPIKey(conf.APIKey),
			option.WithBaseURL(conf.GatewayURL),
			option.WithMaxRetries(0),
			option.WithRequestTimeout(timeout),
		),
		apiKey:      conf.APIKey,
		model:       conf.Model,
		temperature: conf.Temperature,
	}
}

func (c *Client) Ready() error {
	if strings.TrimSpace(c.apiKey) == "" {
		return assessment.ErrMissingAPIKey
	}
	return nil
}

func (c *Client) Complete(ctx context.Context, req assessment.CompletionRequest) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages(req),
		Temperature: openai.Float(c.temperature),
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &assessment.UpstreamError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
		}
		return "", errors.Wrap(err, "calling completion gateway")
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errEmptyCompletion
	}
	return content, nil
}

func messages(req assessment.CompletionRequest) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}

	// plain text prompts are sent as a string
	if len(req.Parts) == 1 && req.Parts[0].ImageURL == "" {
		return append(msgs, openai.UserMessage(req.Parts[0].Text))
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.ImageURL != "" {
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: p.ImageURL}))
			continue
		}
		parts = append(parts, openai.TextContentPart(p.Text))
	}
	return append(msgs, openai.UserMessage(parts))
}
