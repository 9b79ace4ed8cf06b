// Package main is the entry point for the authdemo binary, a small
// service showcasing token-based authentication.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/genomearc/servicekit/internal/demo"
	"github.com/genomearc/servicekit/pkg/api"
	"github.com/genomearc/servicekit/pkg/auth"
	"github.com/genomearc/servicekit/pkg/auth/authtest"
	"github.com/genomearc/servicekit/pkg/config"
	"github.com/genomearc/servicekit/pkg/logging"
	"github.com/genomearc/servicekit/pkg/telemetry"
)

const (
	envPrefix  = "AUTHDEMO_"
	tokenValid = time.Hour
)

type serviceConfig struct {
	Server    api.Config         `yaml:"server"`
	Hangout   demo.HangoutConfig `yaml:"hangout"`
	Telemetry telemetry.Config   `yaml:"telemetry"`
	Log       logging.Config     `yaml:"log"`
}

func defaultServiceConfig() serviceConfig {
	logCfg := logging.DefaultConfig()
	logCfg.Service = "authdemo"
	return serviceConfig{
		Server:    api.DefaultConfig(),
		Hangout:   demo.DefaultHangoutConfig(),
		Telemetry: telemetry.Config{ServiceName: "authdemo"},
		Log:       logCfg,
	}
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	prettyLogs := flag.Bool("pretty", false, "Enable pretty console logging")
	flag.Parse()

	cfg := defaultServiceConfig()
	if err := config.LoadWithEnv(*configPath, envPrefix, &cfg); err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *prettyLogs {
		cfg.Log.Pretty = true
	}

	logger := logging.Setup(cfg.Log)
	logger.Info("Starting authdemo", "addr", cfg.Server.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	shutdownTelemetry, err := telemetry.SetupProvider(ctx, cfg.Telemetry)
	if err != nil {
		logger.Error("Failed to set up telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("Failed to shut down telemetry", "error", err)
		}
	}()

	// The demo signs its own tokens with a fresh key pair on every start.
	keys, err := authtest.GenerateKeyPair()
	if err != nil {
		logger.Error("Failed to generate signing keys", "error", err)
		os.Exit(1)
	}
	publicJWK, err := keys.PublicJWK()
	if err != nil {
		logger.Error("Failed to export public key", "error", err)
		os.Exit(1)
	}
	provider, err := auth.NewJWTProvider[demo.Context](demo.JWTConfig(publicJWK))
	if err != nil {
		logger.Error("Failed to create auth provider", "error", err)
		os.Exit(1)
	}
	issue := demo.Issuer(keys, tokenValid)
	users, err := demo.ExampleUsers(issue)
	if err != nil {
		logger.Error("Failed to create example users", "error", err)
		os.Exit(1)
	}

	handler := demo.Routes(demo.NewHangout(cfg.Hangout), provider, users, issue)
	server := api.NewServer(cfg.Server, handler, logger)
	if err := server.Run(ctx); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
