package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiClient is the concrete Generator backed by the Gemini API.
type geminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiClient returns a Generator that calls Gemini.
//   - apiKey: your GEMINI_API_KEY
//   - model:  e.g. "gemini-1.5-flash-latest"
//
// The returned close function releases the underlying gRPC connection.
func NewGeminiClient(ctx context.Context, apiKey, model string) (Generator, func() error, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &geminiClient{
		client: client,
		model:  client.GenerativeModel(model),
	}, client.Close, nil
}

// Generate sends a single-turn prompt and concatenates the text parts of the
// first candidate.
func (c *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	text := geminiText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return text, nil
}

// geminiText extracts the text of the first candidate, or "" when the
// response was blocked or carried no text parts.
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
