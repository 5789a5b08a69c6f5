package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalConfig() *Config {
	return &Config{
		Billing:   BillingConfig{APIURL: "https://billing.example.com"},
		Document:  DocumentConfig{APIURL: "https://docs.example.com", Token: "secret"},
		Generator: GeneratorConfig{TemplatePath: "templates/facture.html"},
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := minimalConfig()
	applyDefaults(cfg)

	assert.Equal(t, "facture-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "5000", cfg.App.Port)
	assert.Equal(t, 30*time.Second, cfg.Billing.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Document.Timeout)
	assert.Equal(t, "c571fa44-dc5d-4173-9c3e-de62e12ace2e", cfg.Document.Folder)
	assert.Equal(t, 30*time.Second, cfg.Renderer.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "stdout", cfg.Log.Output)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := minimalConfig()
	cfg.App.Port = "8080"
	cfg.Billing.Timeout = 5 * time.Second
	cfg.Document.Folder = "other-folder"

	applyDefaults(cfg)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5*time.Second, cfg.Billing.Timeout)
	assert.Equal(t, "other-folder", cfg.Document.Folder)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "missing billing url",
			mutate:  func(c *Config) { c.Billing.APIURL = "" },
			wantErr: "billing.api_url is required",
		},
		{
			name:    "missing document url",
			mutate:  func(c *Config) { c.Document.APIURL = "" },
			wantErr: "document.api_url is required",
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Document.Token = "" },
			wantErr: "document.token is required",
		},
		{
			name:    "missing template path",
			mutate:  func(c *Config) { c.Generator.TemplatePath = "" },
			wantErr: "generator.template_path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimalConfig()
			applyDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FACTURE_BILLING_API_URL", "https://billing.example.com")
	t.Setenv("FACTURE_DOCUMENT_API_URL", "https://docs.example.com")
	t.Setenv("FACTURE_DOCUMENT_TOKEN", "env-token")
	t.Setenv("FACTURE_GENERATOR_TEMPLATE_PATH", "templates/facture.html")
	t.Setenv("FACTURE_APP_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://billing.example.com", cfg.Billing.APIURL)
	assert.Equal(t, "env-token", cfg.Document.Token)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, 30*time.Second, cfg.Billing.Timeout)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("FACTURE_BILLING_API_URL", "https://billing.example.com")
	t.Setenv("FACTURE_DOCUMENT_API_URL", "https://docs.example.com")
	t.Setenv("FACTURE_GENERATOR_TEMPLATE_PATH", "templates/facture.html")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document.token")
}
