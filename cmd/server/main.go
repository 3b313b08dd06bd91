package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/ignite/agency-pulse/internal/api"
	"github.com/ignite/agency-pulse/internal/auth"
	"github.com/ignite/agency-pulse/internal/config"
	"github.com/ignite/agency-pulse/internal/kanban"
	"github.com/ignite/agency-pulse/internal/klaviyo"
	"github.com/ignite/agency-pulse/internal/storage"
)

// checkPortAvailable verifies the port is free before we commit to startup.
// A second instance on the same box fails fast with a clear message instead
// of a late bind error buried in the server goroutine.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is not available on %s: %w", port, host, err)
	}
	return ln.Close()
}

func main() {
	log.Println("============================================")
	log.Println("  Agency Pulse - Dashboard API Server")
	log.Println("============================================")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Startup check failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}
	log.Println("Database schema ready")

	cache, err := storage.NewSnapshotCache(cfg.Redis)
	if err != nil {
		// The cache is an accelerator, not a dependency. Run without it.
		log.Printf("WARNING: snapshot cache unavailable, continuing without: %v", err)
		cache = nil
	}
	if cache != nil {
		defer cache.Close()
		log.Printf("Snapshot cache connected (ttl=%s)", cfg.Redis.TTL())
	}

	var fetcher api.MessageFetcher
	var syncStatus api.SyncStatus
	if cfg.Klaviyo.Enabled {
		client := klaviyo.NewClient(cfg.Klaviyo)
		fetcher = client

		collector := klaviyo.NewCollector(client, store, cfg.Sync)
		syncStatus = collector
		go collector.Start(ctx)
		log.Printf("Klaviyo collector started (interval=%s, lookback=%dd)",
			cfg.Sync.Interval(), cfg.Sync.LookbackDays)
	} else {
		log.Println("Klaviyo sync disabled, serving stored records only")
	}

	var board *kanban.Service
	if cfg.Kanban.Enabled {
		boardStore, err := kanban.NewPostgresStore(ctx, store.DB())
		if err != nil {
			log.Fatalf("Failed to initialize board storage: %v", err)
		}
		board = kanban.NewService(boardStore, kanban.Config{
			DueSoonThreshold: time.Duration(cfg.Kanban.DueSoonHours) * time.Hour,
			MaxCardsPerLane:  cfg.Kanban.MaxCardsPerLane,
		})
		log.Println("Production board enabled")
	}

	var authManager *auth.Manager
	if cfg.Auth.Enabled {
		baseURL := fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
		if host == "0.0.0.0" {
			// Behind a load balancer the OAuth redirect URL has to be the
			// public one, not the bind address.
			baseURL = os.Getenv("AUTH_BASE_URL")
			if baseURL == "" {
				log.Fatal("AUTH_BASE_URL must be set when binding to 0.0.0.0 with auth enabled")
			}
		}
		authManager = auth.NewManager(cfg.Auth, baseURL)
		authManager.StartSessionCleanup(ctx)
		log.Printf("Google OAuth enabled (domain=%s)", cfg.Auth.AllowedDomain)
	} else {
		log.Println("WARNING: auth disabled, API is open")
	}

	handlers := api.NewHandlers(store, cache, fetcher, syncStatus, board)
	router := api.SetupRoutes(handlers, authManager)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
