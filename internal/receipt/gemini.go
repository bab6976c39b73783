package receipt

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-2.0-flash"

// GeminiExtractor implements Extractor against the Gemini API.
type GeminiExtractor struct {
	client *genai.Client
}

var _ Extractor = (*GeminiExtractor)(nil)

// NewGeminiExtractor creates an extractor authenticated with the given API
// key. Close releases the underlying client.
func NewGeminiExtractor(ctx context.Context, apiKey string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiExtractor{client: client}, nil
}

// Close releases the underlying API client.
func (g *GeminiExtractor) Close() error {
	return g.client.Close()
}

// Extract sends the image and the fixed prompt to the model and returns the
// concatenated text of the first candidate.
func (g *GeminiExtractor) Extract(ctx context.Context, image []byte, mimeType string) (string, error) {
	model := g.client.GenerativeModel(geminiModel)

	resp, err := model.GenerateContent(ctx,
		genai.Text(Prompt),
		genai.Blob{MIMEType: mimeType, Data: image},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("model returned no candidates")
	}

	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	if out == "" {
		return "", fmt.Errorf("model returned no text")
	}
	return out, nil
}
