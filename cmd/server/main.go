package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/config"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/core"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/db"
	httpserver "github.com/RishavRaj625/Personalized-Patient-Education-System/internal/http"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/llm"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/logger"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/store"

	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	l := logger.New(cfg.LogLevel)

	ctx := context.Background()

	backend, closeBackend, err := openBackend(ctx, cfg.Storage, l)
	if err != nil {
		l.WithError(err).Fatal("failed to open storage")
	}
	defer closeBackend()

	st := store.New(backend, store.WithLogger(l))
	if err := st.Load(ctx); err != nil {
		// Keep serving with an empty store; the next write replaces the document.
		l.WithComponent("store").WithError(err).Error("failed to load store document, starting empty")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	provider, err := newProvider(ctx, cfg.LLM)
	if err != nil {
		l.WithError(err).Fatal("failed to construct generation client")
	}
	client := llm.Instrument(provider, l, llm.NewMetrics(reg))

	opts := httpserver.Options{MaxUploadBytes: cfg.Server.MaxUploadBytes, Gatherer: reg}
	if cfg.Metrics.Enabled {
		opts.MetricsPath = cfg.Metrics.Path
	}
	handler := httpserver.NewServer(st,
		core.NewEducationService(client, st),
		core.NewChatService(client, st),
		core.NewInjuryService(client, st),
		core.NewAssessmentService(client, st),
		l, opts)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		l.WithField("addr", srv.Addr).WithField("provider", cfg.LLM.Provider).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Error("graceful shutdown failed")
	}
}

// openBackend returns the store backend selected by cfg and a func that
// releases it.
func openBackend(ctx context.Context, cfg config.StorageConfig, l *logger.Logger) (store.Backend, func(), error) {
	if cfg.Driver != config.StoragePostgres {
		return store.NewFileBackend(cfg.Path), func() {}, nil
	}

	conn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, err
	}

	var notifier *db.Notifier
	if cfg.NotifyChannel != "" {
		notifier = db.NewNotifier(conn, cfg.NotifyChannel)
	}
	return db.NewDocumentRepository(conn, cfg.DocumentName, notifier, l), func() { conn.Close() }, nil
}

func newProvider(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIClient(llm.OpenAIOptions{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			VisionModel: cfg.VisionModel,
			Temperature: cfg.Temperature,
		}), nil
	default:
		return llm.NewGeminiClient(ctx, llm.GeminiOptions{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			VisionModel: cfg.VisionModel,
			Temperature: cfg.Temperature,
		})
	}
}
