package model

import (
	"fmt"
	"time"
)

// ================ Config ================
type ConversationConfig struct {
	TTL             time.Duration `envconfig:"CONVERSATION_TTL" default:"30m"`
	HistoryLimit    int           `envconfig:"CONVERSATION_HISTORY_LIMIT" default:"3"`
	ClassifyTimeout time.Duration `envconfig:"CLASSIFIER_TIMEOUT" default:"15s"`
	DispatchTimeout time.Duration `envconfig:"DISPATCH_TIMEOUT" default:"10s"`
	FormatTimeout   time.Duration `envconfig:"FORMATTER_TIMEOUT" default:"20s"`
}

const (
	ClassifierProviderGemini  = "gemini"
	ClassifierProviderKeyword = "keyword"
)

type ClassifierModelConfig struct {
	Provider    string  `envconfig:"CLASSIFIER_PROVIDER" default:"gemini"`
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"16"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0"`
}

// Validate rejects providers the classifier cannot run.
func (c ClassifierModelConfig) Validate() error {
	switch c.Provider {
	case ClassifierProviderGemini, ClassifierProviderKeyword:
		return nil
	default:
		return fmt.Errorf("CLASSIFIER_PROVIDER must be %q or %q, got %q",
			ClassifierProviderGemini, ClassifierProviderKeyword, c.Provider)
	}
}

type FormatterModelConfig struct {
	Enabled     bool    `envconfig:"FORMATTER_ENABLED" default:"true"`
	Model       string  `envconfig:"FORMATTER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"FORMATTER_MAX_TOKENS" default:"512"`
	Temperature float32 `envconfig:"FORMATTER_TEMPERATURE" default:"0.2"`
}

type RetrievalConfig struct {
	TopK           int    `envconfig:"FAQ_TOP_K" default:"1"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	SeedFile       string `envconfig:"FAQ_SEED_FILE"`
}

type InteractionLogConfig struct {
	File string `envconfig:"LOG_FILE" default:"agent_interactions.log"`
}
