package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const providerGemini = "gemini"

// GeminiClient calls the Gemini generateContent API.
type GeminiClient struct {
	models      *genai.Models
	model       string
	visionModel string
	temperature float32
}

// GeminiOptions configures NewGeminiClient.
type GeminiOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Temperature float32
}

// NewGeminiClient constructs a Gemini-backed client.
func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = opts.BaseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-1.5-pro"
	}
	visionModel := opts.VisionModel
	if visionModel == "" {
		visionModel = model
	}

	return &GeminiClient{
		models:      client.Models,
		model:       model,
		visionModel: visionModel,
		temperature: opts.Temperature,
	}, nil
}

// GenerateText sends prompt as a single text part.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, c.model, genai.Text(prompt))
}

// GenerateWithImage sends prompt followed by the inline image.
func (c *GeminiClient) GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(image, mimeType),
	}
	return c.generate(ctx, c.visionModel, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)})
}

func (c *GeminiClient) generate(ctx context.Context, model string, contents []*genai.Content) (string, error) {
	var config *genai.GenerateContentConfig
	if c.temperature > 0 {
		config = &genai.GenerateContentConfig{Temperature: genai.Ptr(c.temperature)}
	}

	result, err := c.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", &GenerationError{Provider: providerGemini, Reason: classifyGeminiError(err), Cause: err}
	}
	if result == nil {
		return "", &GenerationError{Provider: providerGemini, Reason: ReasonEmpty}
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", &GenerationError{Provider: providerGemini, Reason: ReasonEmpty}
	}
	return text, nil
}

func classifyGeminiError(err error) FailureReason {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return reasonForStatus(apiErr.Code)
	}
	return ReasonTransport
}
