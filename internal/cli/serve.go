package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/varsilias/bubblechat/internal/api"
	"github.com/varsilias/bubblechat/internal/buildinfo"
	"github.com/varsilias/bubblechat/internal/chat"
	"github.com/varsilias/bubblechat/internal/config"
	"github.com/varsilias/bubblechat/internal/logging"
	"github.com/varsilias/bubblechat/internal/middleware"
	"github.com/varsilias/bubblechat/internal/ollama"
	"github.com/varsilias/bubblechat/internal/persona"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var (
		port     string
		backend  string
		logLevel string
		logJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServer()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("backend") {
				cfg.Backend = backend
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("log-json") {
				cfg.LogJSON = logJSON
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogJSON)
			logger.Info("build", "version", buildinfo.Version, "commit", buildinfo.Commit, "built_at", buildinfo.BuiltAt)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, logger, cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "8000", "HTTP listen port (PORT)")
	cmd.Flags().StringVar(&backend, "backend", config.BackendOpenAI, "reply engine: openai|ollama|echo (BACKEND)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error (LOG_LEVEL)")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "log as JSON (LOG_JSON)")
	return cmd
}

func serve(ctx context.Context, logger *slog.Logger, cfg *config.Server) error {
	engine, err := newEngine(ctx, logger, cfg)
	if err != nil {
		return err
	}

	personas := persona.Default()
	if cfg.PersonasFile != "" {
		if personas, err = persona.Load(cfg.PersonasFile); err != nil {
			return err
		}
		logger.Info("personas loaded", "file", cfg.PersonasFile)
	}

	ctrl := chat.NewController(logger, engine, personas)
	if cfg.MaxHistoryTokens > 0 {
		counter, err := chat.NewTokenCounter()
		if err != nil {
			logger.Warn("token counter unavailable; history is not trimmed", "err", err)
		} else {
			ctrl.WithHistoryBudget(counter, cfg.MaxHistoryTokens)
		}
	}

	limiter := middleware.NewRateLimiter(cfg.ChatRatePerMin)
	handler := api.NewRouter(logger, api.NewHandlers(logger, ctrl, personas), api.RouteOptions{
		ChatLimit: limiter.Middleware,
		StaticDir: cfg.StaticDir,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      5 * time.Minute, // slow model replies
		IdleTimeout:       120 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Info("chat service listening", "addr", server.Addr, "backend", cfg.Backend)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "graceful shutdown")
		}
		logger.Info("server stopped")
		return nil
	})
	return eg.Wait()
}

// newEngine picks the reply engine. An unreachable Ollama falls back to echo so the
// service still starts.
func newEngine(ctx context.Context, logger *slog.Logger, cfg *config.Server) (chat.Engine, error) {
	switch cfg.Backend {
	case config.BackendOpenAI:
		logger.Info("using openai-compatible engine", "base_url", cfg.BaseURL, "model", cfg.Model)
		return chat.NewOpenAIEngine(chat.OpenAIOptions{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}), nil
	case config.BackendOllama:
		oc := ollama.NewClient(cfg.OllamaURL, logger)
		if cfg.OllamaWait {
			logger.Info("waiting for ollama", "timeout", cfg.OllamaWaitTimeout, "model", cfg.OllamaModel)
			waitCtx, cancel := context.WithTimeout(ctx, cfg.OllamaWaitTimeout)
			err := oc.WaitReady(waitCtx, []string{cfg.OllamaModel}, cfg.OllamaWaitInterval)
			cancel()
			if err != nil {
				logger.Warn("ollama wait timed out; continuing", "err", err)
			}
		}
		if err := oc.Ping(ctx); err != nil {
			logger.Warn("ollama not reachable; falling back to echo engine", "err", err)
			return chat.NewEchoEngine(30 * time.Millisecond), nil
		}
		if ok, err := oc.HasModel(ctx, cfg.OllamaModel); err == nil && !ok {
			logger.Warn("ollama model not pulled; requests will fail until it is", "model", cfg.OllamaModel)
		}
		logger.Info("using ollama engine", "base_url", cfg.OllamaURL, "model", cfg.OllamaModel)
		return chat.NewOllamaEngine(oc, cfg.OllamaModel), nil
	case config.BackendEcho:
		logger.Info("using echo engine")
		return chat.NewEchoEngine(30 * time.Millisecond), nil
	}
	return nil, errors.Errorf("unknown backend %q", cfg.Backend)
}
