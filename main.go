package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"imposter-server/config"
	"imposter-server/loghandler"
)

func main() {
	level := new(slog.LevelVar)
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, level)))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; using environment variables", "tag", "main")
	}

	cfg := config.Load()
	level.Set(loghandler.ParseLevel(cfg.LogLevel))

	slog.Info("configuration", "tag", "main",
		"port", cfg.Port, "public_url", cfg.PublicURL, "settings_backend", cfg.SettingsBackend,
		"resume_window", cfg.ResumeWindow(), "word_data", cfg.WordDataPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "tag", "main", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.Mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown", "tag", "main", "err", err)
		}
	}()

	slog.Info("imposter server listening", "tag", "main", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "tag", "main", "err", err)
	}
}
