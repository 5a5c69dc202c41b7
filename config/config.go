package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Ollama struct {
		BaseURL   string `yaml:"base_url"`
		ChatModel string `yaml:"chat_model"`
	} `yaml:"ollama"`
	Embeddings struct {
		TextModel string `yaml:"text_model"`
	} `yaml:"embeddings"`
	Processing struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
		TopK         int `yaml:"top_k"`
	} `yaml:"processing"`
	Paths struct {
		DataDir string `yaml:"data_dir"`
		LogFile string `yaml:"log_file"`
	} `yaml:"paths"`
	Auth struct {
		AdminPassword string `yaml:"admin_password"`
		UserPassword  string `yaml:"user_password"`
	} `yaml:"auth"`
}

// Load loads configuration from file or returns defaults. Credentials and
// connection details can be overridden through the environment so the config
// file never has to hold real passwords.
func Load() (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(os.Getenv("HOME"), ".docuquery", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".docuquery")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.ChatModel = ""
	cfg.Embeddings.TextModel = "nomic-embed-text"
	cfg.Processing.ChunkSize = 1500
	cfg.Processing.ChunkOverlap = 300
	cfg.Processing.TopK = 3
	cfg.Auth.AdminPassword = "admin_password"
	cfg.Auth.UserPassword = "student_password"

	homeDir := os.Getenv("HOME")
	cfg.Paths.DataDir = filepath.Join(homeDir, ".docuquery", "data")
	cfg.Paths.LogFile = filepath.Join(homeDir, ".docuquery", "docuquery.log")

	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DOCUQUERY_ADMIN_PASSWORD"); v != "" {
		cfg.Auth.AdminPassword = v
	}
	if v := os.Getenv("DOCUQUERY_USER_PASSWORD"); v != "" {
		cfg.Auth.UserPassword = v
	}
	if v := os.Getenv("DOCUQUERY_DATA_DIR"); v != "" {
		cfg.Paths.DataDir = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.Ollama.BaseURL = v
	}
}
