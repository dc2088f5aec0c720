package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"heartbot/internal/bot"
	"heartbot/internal/chart"
	"heartbot/internal/config"
	"heartbot/internal/handlers"
	"heartbot/internal/llm"
	"heartbot/internal/metrics"
	"heartbot/internal/session"
	"heartbot/internal/thingspeak"
)

func main() {
	log.Println("Starting heart monitor LINE bot...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sessions, closeSessions, err := openSessions(cfg)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer closeSessions()

	hc := &http.Client{Timeout: cfg.HTTPClientTimeout}

	pipeline := chart.NewPipeline(thingspeak.NewClient(cfg.ThingSpeakBaseURL, hc), cfg.StaticDir, cfg.LegacyPaths)
	assistant := llm.NewAssistant(llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, hc))
	router := bot.NewRouter(pipeline, sessions, assistant, bot.Access{
		Chart: cfg.ChartAuthUsers,
		AI:    cfg.AIAuthUsers,
	})

	lineAPI, err := messaging_api.NewMessagingApiAPI(cfg.ChannelAccessToken)
	if err != nil {
		log.Fatalf("Failed to create LINE client: %v", err)
	}

	handler := handlers.NewHandler(router, sessions, lineAPI, handlers.Options{
		ChannelSecret: cfg.ChannelSecret,
		PublicBaseURL: cfg.PublicBaseURL,
		StaticDir:     cfg.StaticDir,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Label-keyed charts are overwritten in place, only request-scoped ones pile up.
	if !cfg.LegacyPaths && cfg.ChartRetention > 0 {
		go pipeline.RunJanitor(bgCtx, cfg.ChartRetention/2, cfg.ChartRetention)
		log.Printf("Chart janitor started, retention %s", cfg.ChartRetention)
	}

	go updateMetrics(bgCtx, sessions)

	go func() {
		log.Printf("Server listening on port %s\n", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

// openSessions builds the configured transcript store.
func openSessions(cfg config.Config) (session.Store, func(), error) {
	if cfg.SessionBackend != config.BackendRedis {
		log.Println("Using in-memory session store")
		return session.NewMemoryStore(), func() {}, nil
	}

	store, err := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Connected to Redis at %s", cfg.RedisAddr)
	return store, func() {
		if err := store.Close(); err != nil {
			log.Printf("redis close: %v", err)
		}
	}, nil
}

// updateMetrics periodically refreshes the active session gauge.
func updateMetrics(ctx context.Context, sessions session.Store) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := sessions.Len(ctx); err == nil {
				metrics.ActiveSessions.Set(float64(n))
			}
		}
	}
}
