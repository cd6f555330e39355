// ABOUTME: Service configuration loading for the VulnHunt scan pipeline.
// ABOUTME: Merges built-in defaults with an optional YAML config file.

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Inference InferenceConfig `yaml:"inference"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Reasoner  ReasonerConfig  `yaml:"reasoner"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// InferenceConfig holds classifier collaborator settings.
type InferenceConfig struct {
	Endpoint       string `yaml:"endpoint"`
	LabelsPath     string `yaml:"labels_path"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the inference request timeout.
func (c InferenceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetrievalConfig holds knowledge-base retrieval settings.
type RetrievalConfig struct {
	KBPath string `yaml:"kb_path"`
	TopK   int    `yaml:"top_k"`
}

// ReasonerConfig holds reasoning-service settings. APIKey is a static
// default; the OPENAI_API_KEY environment variable takes precedence at
// call time.
type ReasonerConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the reasoning request timeout.
func (c ReasonerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 5000,
		},
		Inference: InferenceConfig{
			Endpoint:       "http://localhost:8601",
			LabelsPath:     "data/labels.json",
			MaxTokens:      512,
			TimeoutSeconds: 30,
		},
		Retrieval: RetrievalConfig{
			KBPath: "data/knowledge_base.json",
			TopK:   3,
		},
		Reasoner: ReasonerConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
		},
	}
}

// Load reads the YAML config file at path on top of the defaults. A missing
// file is not an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}
