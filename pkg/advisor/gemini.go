package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Generator produces raw model output for a prompt. The Gemini-backed
// implementation is the only production one; tests substitute their own.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	geminiModel     = "gemini-2.0-flash"
	generateTimeout = 30 * time.Second
)

// GeminiGenerator calls the Gemini API with decision-friendly settings
// (low temperature, bounded output). A client is created per call; the
// engine runs once a day so connection reuse buys nothing.
type GeminiGenerator struct {
	APIKey string
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(geminiModel)
	model.SetTemperature(0.3)
	model.SetTopP(0.9)
	model.SetMaxOutputTokens(500)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	rawOutput := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			rawOutput += string(text)
		}
	}

	return rawOutput, nil
}
