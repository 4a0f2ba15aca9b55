// Command server runs the Auction House web frontend.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/borisrunfast/auction-house/internal/server"
)

const (
	defaultPort        = "8080"
	defaultAPIBaseURL  = "https://v2.api.noroff.dev"
	defaultDBPath      = "data/sessions.db"
	defaultTemplateDir = "web/templates"
	defaultStaticDir   = "web/static"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := loadConfig(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Error("creating data directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("starting server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig reads the environment, filling in defaults and warning about
// anything that will degrade the deployment.
func loadConfig(logger *slog.Logger) server.Config {
	cfg := server.Config{
		Port:          envOr("PORT", defaultPort),
		TemplateDir:   envOr("TEMPLATE_DIR", defaultTemplateDir),
		StaticDir:     envOr("STATIC_DIR", defaultStaticDir),
		DBPath:        envOr("DB_PATH", defaultDBPath),
		APIBaseURL:    envOr("API_BASE_URL", defaultAPIBaseURL),
		APIKey:        os.Getenv("API_KEY"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
	}

	if cfg.APIKey == "" {
		logger.Warn("API_KEY not set; authenticated requests to the remote API will fail")
	}
	if cfg.SessionSecret == "" {
		// Sessions sign with an ephemeral secret and die with the process.
		cfg.SessionSecret = randomSecret()
		logger.Warn("SESSION_SECRET not set; using an ephemeral secret, sessions will not survive restarts")
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
