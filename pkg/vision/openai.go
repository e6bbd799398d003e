package vision

import (
	"context"
	"encoding/base64"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI calls an OpenAI-compatible chat completions API with an image
// attached as a data URI. Works against api.openai.com and compatible
// self-hosted gateways via baseURL.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI creates an OpenAI-compatible backend. An empty baseURL uses
// the official API endpoint.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg)}
}

// Name identifies the backend for logging.
func (o *OpenAI) Name() string { return "openai" }

// Describe sends the image and prompt as a multimodal chat message.
func (o *OpenAI) Describe(ctx context.Context, req Request) (string, error) {
	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(req.Image)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     req.Model,
		MaxTokens: 300,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: req.Prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: dataURI,
							// Crops are already small and focused.
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from model %s", req.Model)
	}

	return resp.Choices[0].Message.Content, nil
}
