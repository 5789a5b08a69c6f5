package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Billing   BillingConfig
	Document  DocumentConfig
	Generator GeneratorConfig
	Renderer  RendererConfig
	Log       LogConfig
	HTTP      HTTPConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// BillingConfig holds the billing (Dropcolis) API settings
type BillingConfig struct {
	APIURL  string
	Timeout time.Duration
}

// DocumentConfig holds the document-management (Directus) API settings.
// The bearer token authenticates against both APIs.
type DocumentConfig struct {
	APIURL  string
	Token   string
	Folder  string
	Timeout time.Duration
}

// GeneratorConfig holds facture generation settings
type GeneratorConfig struct {
	TemplatePath string
	ScratchDir   string // empty = os.TempDir()
}

// RendererConfig holds the headless-Chrome PDF renderer settings
type RendererConfig struct {
	RemoteURL string // remote Chrome DevTools endpoint; empty = launch locally
	NoSandbox bool   // required when running as root in Docker
	Timeout   time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with FACTURE_ prefix (e.g., FACTURE_DOCUMENT_TOKEN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("FACTURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Billing: BillingConfig{
			APIURL:  v.GetString("billing.api_url"),
			Timeout: v.GetDuration("billing.timeout"),
		},
		Document: DocumentConfig{
			APIURL:  v.GetString("document.api_url"),
			Token:   v.GetString("document.token"),
			Folder:  v.GetString("document.folder"),
			Timeout: v.GetDuration("document.timeout"),
		},
		Generator: GeneratorConfig{
			TemplatePath: v.GetString("generator.template_path"),
			ScratchDir:   v.GetString("generator.scratch_dir"),
		},
		Renderer: RendererConfig{
			RemoteURL: v.GetString("renderer.remote_url"),
			NoSandbox: v.GetBool("renderer.no_sandbox"),
			Timeout:   v.GetDuration("renderer.timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "facture-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "5000"
	}
	if cfg.Billing.Timeout == 0 {
		cfg.Billing.Timeout = 30 * time.Second
	}
	if cfg.Document.Timeout == 0 {
		cfg.Document.Timeout = 60 * time.Second
	}
	if cfg.Document.Folder == "" {
		cfg.Document.Folder = "c571fa44-dc5d-4173-9c3e-de62e12ace2e"
	}
	if cfg.Renderer.Timeout == 0 {
		cfg.Renderer.Timeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// PDF generation plus upload can take a while on cold Chrome starts
		cfg.HTTP.WriteTimeout = 2 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
}

// validate performs validation on the configuration. The four fields the
// generator cannot run without are checked here so a misconfigured process
// fails at startup rather than on the first request.
func (c *Config) validate() error {
	if c.Billing.APIURL == "" {
		return fmt.Errorf("billing.api_url is required")
	}
	if c.Document.APIURL == "" {
		return fmt.Errorf("document.api_url is required")
	}
	if c.Document.Token == "" {
		return fmt.Errorf("document.token is required")
	}
	if c.Generator.TemplatePath == "" {
		return fmt.Errorf("generator.template_path is required")
	}
	return nil
}
