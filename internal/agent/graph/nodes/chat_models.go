package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
	logx "github.com/Chative-commerce-agent/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	Classifier *model.ClassifierModelConfig
	Formatter  *model.FormatterModelConfig
}

// ChatModels holds the classifier and formatter chat models. Either is nil
// when its stage does not call Gemini.
type ChatModels struct {
	Classifier          *gemini.ChatModel
	Formatter           *gemini.ChatModel
	ClassifierModelName string
	FormatterModelName  string
}

// NewGenAIClient creates the Gemini API client shared by chat models and the
// embedder.
func NewGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewChatModels creates the Gemini models the configuration asks for.
func NewChatModels(ctx context.Context, client *genai.Client, config ChatModelConfig) (*ChatModels, error) {
	cms := &ChatModels{}

	if c := config.Classifier; c != nil && c.Provider == model.ClassifierProviderGemini {
		cm, err := newGeminiModel(ctx, client, c.Model, c.Temperature, c.MaxTokens)
		if err != nil {
			logx.Error().Err(err).Msg("Error creating classifier model")
			return nil, fmt.Errorf("error creating classifier model: %w", err)
		}
		cms.Classifier, cms.ClassifierModelName = cm, c.Model
	}

	if f := config.Formatter; f != nil && f.Enabled {
		cm, err := newGeminiModel(ctx, client, f.Model, f.Temperature, f.MaxTokens)
		if err != nil {
			logx.Error().Err(err).Msg("Error creating formatter model")
			return nil, fmt.Errorf("error creating formatter model: %w", err)
		}
		cms.Formatter, cms.FormatterModelName = cm, f.Model
	}

	return cms, nil
}

func newGeminiModel(ctx context.Context, client *genai.Client, name string, temperature float32, maxTokens int) (*gemini.ChatModel, error) {
	if client == nil {
		return nil, fmt.Errorf("gemini client is nil")
	}
	// Both stages answer in a few tokens, so thinking is switched off.
	return gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       name,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	})
}
