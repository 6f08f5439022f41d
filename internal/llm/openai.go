package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const providerOpenAI = "openai"

// OpenAIClient calls the OpenAI chat completion API.  Vision requests send
// the image inline as a data URL.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	visionModel string
	temperature float32
}

// OpenAIOptions configures NewOpenAIClient.  BaseURL is only needed for
// compatible endpoints and tests.
type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Temperature float32
}

// NewOpenAIClient constructs an OpenAI-backed client.  The vision model
// defaults to the text model.
func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	model := opts.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	visionModel := opts.VisionModel
	if visionModel == "" {
		visionModel = model
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		visionModel: visionModel,
		temperature: opts.Temperature,
	}
}

// GenerateText sends prompt as a single user message.
func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, c.model, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
}

// GenerateWithImage sends prompt and image together in one user message.
func (c *OpenAIClient) GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	return c.complete(ctx, c.visionModel, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	})
}

func (c *OpenAIClient) complete(ctx context.Context, model string, msg openai.ChatCompletionMessage) (string, error) {
	if c.client == nil {
		return "", &GenerationError{Provider: providerOpenAI, Reason: ReasonTransport, Cause: errors.New("openai client not initialized")}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    []openai.ChatCompletionMessage{msg},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", &GenerationError{Provider: providerOpenAI, Reason: classifyOpenAIError(err), Cause: err}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &GenerationError{Provider: providerOpenAI, Reason: ReasonEmpty}
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) FailureReason {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return reasonForStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reasonForStatus(reqErr.HTTPStatusCode)
	}
	return ReasonTransport
}
