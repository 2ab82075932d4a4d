package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
	"github.com/Chative-commerce-agent/server/internal/core"
	pkgredis "github.com/Chative-commerce-agent/server/pkg/redis"
	"github.com/Chative-commerce-agent/server/pkg/sqlite"
)

// AppConfig defines all configurable parameters of the agent, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`
	HTTPAddr    string           `envconfig:"HTTP_ADDR" default:":8080"`

	// Infrastructure
	Redis  pkgredis.Config
	SQLite sqlite.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Classifier     model.ClassifierModelConfig
	Formatter      model.FormatterModelConfig
	Conversation   model.ConversationConfig
	Retrieval      model.RetrievalConfig
	InteractionLog model.InteractionLogConfig
}

// loadConfig reads envFile when it exists and binds the environment.
func loadConfig(envFile string) (AppConfig, error) {
	var cfg AppConfig
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process environment config: %w", err)
	}
	if err := cfg.Classifier.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
