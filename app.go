package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"

	"github.com/google/uuid"

	"imposter-server/api"
	"imposter-server/config"
	"imposter-server/feedback"
	"imposter-server/random"
	"imposter-server/session"
	"imposter-server/settings"
	"imposter-server/storage"
	"imposter-server/words"
	"imposter-server/ws"
)

// app is the wired server: corpus, settings, sessions and HTTP routes.
type app struct {
	Mux      *http.ServeMux
	Sessions *session.Host
	Settings *settings.Store
	Corpus   *words.Corpus

	kv storage.KV
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	seed, err := random.Resolve(cfg.Seed)
	if err != nil {
		return nil, err
	}
	slog.Info("random source ready", "tag", "main", "seed", seed, "fixed", cfg.Seed != 0)
	master := rand.New(rand.NewSource(seed))

	corpus := words.LoadFile(cfg.WordDataPath, random.Derive(master))

	kv, err := openKV(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := settings.Open(ctx, kv)
	store.InitializeCategoriesIfNeeded(corpus.CategoryIDs())

	host := session.NewHost(corpus, store, random.Derive(master),
		cfg.ResumeWindow(), feedback.LogSink{Logger: slog.Default()})

	hub := ws.NewHub(cfg, host, resumeSecret(cfg))
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	api.NewHandler(cfg, corpus, store).Register(mux)

	return &app{Mux: mux, Sessions: host, Settings: store, Corpus: corpus, kv: kv}, nil
}

// Close stops every session and closes the settings backend.
func (a *app) Close() error {
	a.Sessions.Close()
	return a.kv.Close()
}

func openKV(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	switch cfg.SettingsBackend {
	case config.BackendMemory:
		slog.Warn("settings are kept in memory and lost on restart", "tag", "main")
		return storage.NewMemoryKV(), nil
	case config.BackendPostgres:
		kv, err := storage.NewPostgresKV(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("settings backend: %w", err)
		}
		return kv, nil
	default:
		kv, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("settings backend: %w", err)
		}
		return kv, nil
	}
}

// resumeSecret returns the configured secret, or a random one that lives as
// long as the process (and its in-memory sessions).
func resumeSecret(cfg *config.Config) []byte {
	if cfg.ResumeSecret != "" {
		return []byte(cfg.ResumeSecret)
	}
	return []byte(uuid.NewString() + uuid.NewString())
}
