package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"telemon/app/internal/bot"
	"telemon/app/internal/cache"
	"telemon/app/internal/config"
	"telemon/app/internal/database"
	"telemon/app/internal/handlers"
	"telemon/app/internal/history"
	"telemon/app/internal/liveness"
	"telemon/app/internal/metrics"
	"telemon/app/internal/notify"
	"telemon/app/internal/ratelimit"
	"telemon/app/internal/station"
	"telemon/app/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional durable backing store for the history.
	var persister history.Persister
	if cfg.DBPath != "" {
		store, err := database.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()
		persister = store
		log.Printf("History persisted to %s", cfg.DBPath)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// Subscriber set and notification fan-out.
	subscribers := notify.NewRegistry()
	var broadcaster *notify.Broadcaster
	if cfg.EnableBot {
		sink := notify.NewTelegramSink(cfg.BotToken)
		broadcaster = notify.NewBroadcaster(sink, subscribers, m.RecordDelivery)
	}

	// The core state object shared by the ingest handler, the liveness
	// sweep and the chat front-end.
	st := station.New(
		history.NewStore(persister),
		liveness.NewTracker(cfg.OfflineAfter),
		cfg.Timezone,
		broadcaster,
		station.WithIngestHook(m.RecordIngest),
		station.WithStatusHook(m.RecordStatus),
	)

	var wg sync.WaitGroup

	if cfg.EnablePoller {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Run(ctx, cfg.PollInterval)
		}()
	}

	if cfg.EnableBot {
		var weatherClient *weather.Client
		if cfg.WeatherKey != "" {
			responses := cache.New(5 * time.Minute)
			defer responses.Stop()
			weatherClient = weather.NewClient(cfg.WeatherKey, cfg.WeatherCity, responses)
		}

		b := bot.New(cfg.BotToken, st, subscribers, weatherClient)
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Run(ctx)
		}()
	}

	limiter := ratelimit.New(cfg.IngestPerMinute)
	defer limiter.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.SetupRoutes(st, limiter, reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}

	wg.Wait()
	log.Println("Shutdown complete")
}
