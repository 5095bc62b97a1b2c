package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lecturacritica/tutor-api/config"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"google.golang.org/api/option"
)

// GeminiClient sends one text prompt and returns the concatenated text reply.
type GeminiClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type geminiClient struct {
	model *genai.GenerativeModel
	name  string
}

// NewGeminiClient returns a nil client when no key is configured or when running
// tests, so the gateway falls back to local generation.
func NewGeminiClient(lc fx.Lifecycle, cfg *config.Config) (GeminiClient, error) {
	if cfg.AI.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. AI gateway will use local fallback generation.")
		return nil, nil
	}
	if cfg.IsTest() {
		log.Info().Msg("Test environment: Gemini client disabled")
		return nil, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.AI.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	model := client.GenerativeModel(cfg.AI.Model)
	model.SetTemperature(0.4)
	model.ResponseMIMEType = "application/json"

	log.Info().Str("model", cfg.AI.Model).Msg("Gemini client initialized")
	return &geminiClient{model: model, name: cfg.AI.Model}, nil
}

func (c *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", c.name, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini returned no text content")
	}
	return sb.String(), nil
}
