// Package config loads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/abhisek/studyplan/internal/llm"
)

// Config holds the server's settings. LLM settings are resolved
// separately by llm.ConfigFromEnv so a missing credential can be
// reported on its own.
type Config struct {
	Addr        string
	DataDir     string
	LogMode     string
	CORSOrigins []string
	APIBaseURL  string
}

// Default returns the settings used when nothing is set.
func Default() Config {
	return Config{
		Addr:       ":8000",
		DataDir:    "./data",
		LogMode:    "dev",
		APIBaseURL: "http://localhost:8000",
		CORSOrigins: []string{
			"http://localhost:3000",
			"http://localhost:8501",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:8501",
		},
	}
}

// LoadDotEnv loads .env from the working directory. Variables already in
// the environment win. A missing file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads settings from the environment over Default.
func Load() Config {
	cfg := Default()
	if v := os.Getenv("STUDYPLAN_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("STUDYPLAN_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("STUDYPLAN_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}
	if v := os.Getenv("STUDYPLAN_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("STUDYPLAN_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	return cfg
}

// LLM resolves the provider configuration from the environment.
func LLM() (llm.Config, error) {
	return llm.ConfigFromEnv()
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
