package claude

import (
	"context"
	"errors"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/safetyaudit/internal/domain"
	"github.com/vbonduro/safetyaudit/internal/summary"
)

// maxTokens leaves room for a summary plus a prioritized list of
// recommendations for a fully answered 25 question checklist.
const maxTokens = 1024

type Summarizer struct {
	client *anthropic.Client
	model  string
}

type Option func(*options)

type options struct {
	baseURL string
}

// WithBaseURL points the client at another Messages API endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

func NewSummarizer(apiKey, model string, opts ...Option) *Summarizer {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	var clientOpts []anthropic.ClientOption
	if o.baseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(o.baseURL))
	}
	return &Summarizer{
		client: anthropic.NewClient(apiKey, clientOpts...),
		model:  model,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, audit domain.AuditRecord, questions []string) (string, error) {
	resp, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(s.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(summary.BuildPrompt(audit, questions)),
		},
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("claude returned %s: %s", apiErr.Type, apiErr.Message)
		}
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText {
			if text := summary.Clean(c.GetText()); text != "" {
				return text, nil
			}
		}
	}
	return "", errors.New("claude returned no text")
}
