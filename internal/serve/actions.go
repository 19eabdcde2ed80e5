package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/docufind/internal/common"
	"github.com/dtnitsch/docufind/pkg/backend"
	"github.com/dtnitsch/docufind/pkg/db"
	"github.com/urfave/cli/v2"
)

// ServeAction runs the /analyze backend until interrupted.
func ServeAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := backend.LoadConfig(c.String("env-file"))
	if err != nil {
		logger.Error("failed to load backend config", "error", err)
		os.Exit(2)
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}

	// The stored geminiApiKey setting covers an unset GEMINI_API_KEY.
	if cfg.GeminiAPIKey == "" {
		if database, err := db.Open(); err == nil {
			if s, err := database.LoadSettings(); err == nil {
				cfg.GeminiAPIKey = s.GeminiAPIKey
			}
			database.Close()
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var gen backend.Generator
	if cfg.GeminiAPIKey != "" {
		g, err := backend.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("failed to initialize Gemini: %w", err)
		}
		gen = g
		logger.Info("Using Gemini", "model", cfg.GeminiModel)
	} else {
		logger.Warn("GEMINI_API_KEY not set, using local fallback summarizer")
	}

	return backend.NewServer(gen, logger).ListenAndServe(ctx, cfg.Addr())
}
