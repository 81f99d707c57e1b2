// Package config provides configuration loading and validation for the
// interview service. Runtime configuration comes from environment
// variables; a .env file is loaded by the entrypoint before this package
// reads the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Config holds the service runtime configuration.
type Config struct {
	Port        int    `validate:"required,min=1,max=65535"`
	DatabaseURL string `validate:"required"`
	APIKey      string `validate:"required"` // Gemini API key
	ModelTier   string `validate:"omitempty,oneof=lite standard advanced"`

	// SpeechAPIURL points at the upstream speech service proxied by the
	// /speech routes. Empty disables the speech endpoints.
	SpeechAPIURL string `validate:"omitempty,url"`

	LogJSON bool
	Debug   bool
}

// Load reads configuration from environment variables and validates it.
// It reads PORT (default: 8080), DATABASE_URL (required), GEMINI_API_KEY
// (required), MODEL_TIER, SPEECH_API_URL, LOG_JSON and DEBUG.
func Load() (*Config, error) {
	port := 8080
	if s := os.Getenv("PORT"); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %v", err)
		}
		port = p
	}

	cfg := &Config{
		Port:         port,
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		APIKey:       os.Getenv("GEMINI_API_KEY"),
		ModelTier:    os.Getenv("MODEL_TIER"),
		SpeechAPIURL: os.Getenv("SPEECH_API_URL"),
		LogJSON:      boolEnv("LOG_JSON"),
		Debug:        boolEnv("DEBUG"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

func boolEnv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
