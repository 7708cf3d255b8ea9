// Package gemini wraps the Google Gemini API for the classifier and the portfolio analyst.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// ErrNoContent indicates the model returned no text.
var ErrNoContent = errors.New("no content generated")

// Client generates text with a single Gemini model.
type Client struct {
	client      *genai.Client
	model       string
	temperature float32
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithModel sets the model to use.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature for free-form generation.
func WithTemperature(t float32) ClientOption {
	return func(c *Client) { c.temperature = t }
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	c := &Client{
		client:      genaiClient,
		model:       DefaultModel,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// GenerateContent generates free-form text. system may be empty.
func (c *Client) GenerateContent(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generating content (model %s): %w", c.model, err)
	}
	return extractText(result)
}

// GenerateJSON asks for a JSON reply at low temperature and strips any markdown fences.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.1)),
		ResponseMIMEType: "application/json",
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generating json (model %s): %w", c.model, err)
	}
	text, err := extractText(result)
	if err != nil {
		return "", err
	}
	return CleanJSONFences(text), nil
}

func extractText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", ErrNoContent
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrNoContent
	}
	return sb.String(), nil
}

var fencePattern = regexp.MustCompile("(?s)^\\s*```(?:json|JSON)?\\s*\\n?(.*?)\\n?\\s*```\\s*$")

// CleanJSONFences removes a surrounding ```json fence from a model reply.
func CleanJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); len(m) > 1 {
		s = m[1]
	}
	return strings.TrimSpace(s)
}
