package verification

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropicClient(cfg Config) *AnthropicClient {
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &AnthropicClient{
		client:    &client,
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
	}
}

func (a *AnthropicClient) Verify(ctx context.Context, claim Claim, image []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(image)
	return a.send(ctx, anthropic.NewUserMessage(
		anthropic.NewImageBlockBase64(MIMEType(image), encoded),
		anthropic.NewTextBlock(Prompt(claim)),
	))
}

func (a *AnthropicClient) Ping(ctx context.Context) (string, error) {
	return a.send(ctx, anthropic.NewUserMessage(anthropic.NewTextBlock(pingPrompt)))
}

func (a *AnthropicClient) Close() error {
	return nil
}

func (a *AnthropicClient) send(ctx context.Context, msg anthropic.MessageParam) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages:  []anthropic.MessageParam{msg},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
