package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration shared by the server and CLI.
type Config struct {
	Port        string
	DatabaseURL string
	ModelSource string
	ModelPath   string
	ModelName   string
	LogLevel    string
	LogFormat   string
}

const (
	DefaultPort        = "8080"
	DefaultModelSource = "file"
	DefaultModelPath   = "models/insurance_charges_v1.json"
	DefaultModelName   = "insurance-charges"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
)

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv and validates it.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:        valueOr(getenv("PORT"), DefaultPort),
		DatabaseURL: strings.TrimSpace(getenv("DATABASE_URL")),
		ModelSource: strings.ToLower(valueOr(getenv("MODEL_SOURCE"), DefaultModelSource)),
		ModelPath:   valueOr(getenv("MODEL_PATH"), DefaultModelPath),
		ModelName:   valueOr(getenv("MODEL_NAME"), DefaultModelName),
		LogLevel:    valueOr(getenv("LOG_LEVEL"), DefaultLogLevel),
		LogFormat:   strings.ToLower(valueOr(getenv("LOG_FORMAT"), DefaultLogFormat)),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks combinations that cannot work.
func (c Config) Validate() error {
	switch c.ModelSource {
	case "file":
		if c.ModelPath == "" {
			return fmt.Errorf("MODEL_PATH is required when MODEL_SOURCE is file")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when MODEL_SOURCE is postgres")
		}
	default:
		return fmt.Errorf("unknown MODEL_SOURCE %q (use: file, postgres)", c.ModelSource)
	}
	return nil
}

// HTTPAddress is the listen address for the HTTP server.
func (c Config) HTTPAddress() string {
	return ":" + c.Port
}

func valueOr(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
