// Package config loads project settings from vitrine.yml with environment
// variable overrides for credentials.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Models selects which models each stage talks to.
type Models struct {
	// Flash is the fast model for structured planning steps.
	Flash string `yaml:"flash,omitempty"`

	// Pro is the stronger model for storyboard and coding.
	Pro string `yaml:"pro,omitempty"`

	// Image is the image generation model.
	Image string `yaml:"image,omitempty"`

	// ImageEdit is the multimodal model used for image editing.
	ImageEdit string `yaml:"imageEdit,omitempty"`
}

// OrderAPI configures the order intake endpoint.
type OrderAPI struct {
	BaseURL string `yaml:"baseUrl,omitempty"`
	APIKey  string `yaml:"apiKey,omitempty"`
}

// Storage configures the S3-compatible publish target.
type Storage struct {
	Endpoint      string `yaml:"endpoint,omitempty"`
	AccessKey     string `yaml:"accessKey,omitempty"`
	SecretKey     string `yaml:"secretKey,omitempty"`
	Bucket        string `yaml:"bucket,omitempty"`
	Secure        bool   `yaml:"secure,omitempty"`
	PublicBaseURL string `yaml:"publicBaseUrl,omitempty"`
}

// ProjectConfig holds project-level settings loaded from vitrine.yml.
type ProjectConfig struct {
	OutputDir    string   `yaml:"outputDir,omitempty"`
	DatabasePath string   `yaml:"databasePath,omitempty"`
	GeminiAPIKey string   `yaml:"geminiApiKey,omitempty"`
	Models       Models   `yaml:"models,omitempty"`
	OrderAPI     OrderAPI `yaml:"orderApi,omitempty"`
	Storage      Storage  `yaml:"storage,omitempty"`
	Verbose      bool     `yaml:"verbose,omitempty"`

	// AssetConcurrency caps parallel image generations. Zero means the
	// stage default.
	AssetConcurrency int `yaml:"assetConcurrency,omitempty"`
}

// Load reads vitrine.yml or vitrine.yaml from dir, applies defaults, then
// environment overrides. Returns a default config (not an error) if no
// config file exists.
func Load(dir string) (*ProjectConfig, error) {
	cfg := &ProjectConfig{}
	for _, name := range []string{"vitrine.yml", "vitrine.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		break
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (c *ProjectConfig) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.OutputDir, "vitrine.db")
	}
	if c.Models.Flash == "" {
		c.Models.Flash = "gemini-2.5-flash"
	}
	if c.Models.Pro == "" {
		c.Models.Pro = "gemini-2.5-pro"
	}
	if c.Models.Image == "" {
		c.Models.Image = "imagen-4.0-generate-001"
	}
	if c.Models.ImageEdit == "" {
		c.Models.ImageEdit = "gemini-2.5-flash-image"
	}
}

// applyEnv lets deployment credentials override file settings. Secrets
// normally arrive this way; the YAML fields exist for local development.
func (c *ProjectConfig) applyEnv() {
	override(&c.GeminiAPIKey, "GEMINI_API_KEY")
	override(&c.OrderAPI.BaseURL, "ORDER_API_BASE_URL")
	override(&c.OrderAPI.APIKey, "ORDER_API_KEY")
	override(&c.Storage.Endpoint, "S3_ENDPOINT")
	override(&c.Storage.AccessKey, "AWS_ACCESS_KEY_ID")
	override(&c.Storage.SecretKey, "AWS_SECRET_ACCESS_KEY")
	override(&c.Storage.Bucket, "BUCKET_NAME")
	override(&c.Storage.PublicBaseURL, "PUBLIC_BASE_URL")
}

func override(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
