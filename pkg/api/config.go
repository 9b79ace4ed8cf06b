// Package api provides the HTTP server shell shared by services: CORS,
// request correlation, request logging and metrics, a health endpoint,
// and graceful shutdown.
package api

import (
	"fmt"
	"time"
)

// Config holds the server settings.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	RootPath string `yaml:"api_root_path"`

	// OpenAPIURL and DocsURL are advertised to clients by services that
	// publish an API description; the server itself does not serve them.
	OpenAPIURL string `yaml:"openapi_url"`
	DocsURL    string `yaml:"docs_url"`

	CORSAllowedOrigins   []string `yaml:"cors_allowed_origins"`
	CORSAllowCredentials bool     `yaml:"cors_allow_credentials"`
	CORSAllowedMethods   []string `yaml:"cors_allowed_methods"`
	CORSAllowedHeaders   []string `yaml:"cors_allowed_headers"`
	CORSExposedHeaders   []string `yaml:"cors_exposed_headers"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultConfig returns the settings services start from.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            8080,
		OpenAPIURL:      "/openapi.json",
		DocsURL:         "/docs",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
