package apirouter

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries the settings an App reads from the environment.
type Config struct {
	Title       string `env:"API_TITLE" envDefault:"API"`
	Description string `env:"API_DESCRIPTION"`
	Version     string `env:"API_VERSION" envDefault:"0.1.0"`
	Addr        string `env:"API_ADDR" envDefault:":8080"`
	DocPrefix   string `env:"API_DOC_PREFIX" envDefault:"/openapi"`
	DocUI       bool   `env:"API_DOC_UI" envDefault:"true"`
}

// ConfigFromEnv parses the configuration from environment variables.
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// NewFromConfig builds an App from a Config. Options still apply on top.
func NewFromConfig(cfg Config, opts ...AppOption) *App {
	base := []AppOption{WithDocPrefix(cfg.DocPrefix)}
	if !cfg.DocUI {
		base = append(base, WithoutDocUI())
	}
	return New(cfg.Title, cfg.Description, cfg.Version, append(base, opts...)...)
}
