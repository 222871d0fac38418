package verification

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int64
}

func NewOpenAIClient(cfg Config) *OpenAIClient {
	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &OpenAIClient{
		client:    &client,
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
	}
}

func (o *OpenAIClient) Verify(ctx context.Context, claim Claim, image []byte) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", MIMEType(image), base64.StdEncoding.EncodeToString(image))

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(Prompt(claim)),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
	}
	return o.complete(ctx, openai.UserMessage(parts))
}

func (o *OpenAIClient) Ping(ctx context.Context) (string, error) {
	return o.complete(ctx, openai.UserMessage(pingPrompt))
}

func (o *OpenAIClient) Close() error {
	return nil
}

func (o *OpenAIClient) complete(ctx context.Context, msg openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(o.model),
		Messages:  []openai.ChatCompletionMessageParamUnion{msg},
		MaxTokens: openai.Int(o.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
