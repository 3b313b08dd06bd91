package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/agency-pulse/internal/config"
	"github.com/ignite/agency-pulse/internal/klaviyo"
	"github.com/ignite/agency-pulse/internal/pkg/distlock"
	"github.com/ignite/agency-pulse/internal/storage"
)

// The worker is the standalone sync runner for deployments that scale the
// API server separately from collection. A distributed lock keeps multiple
// replicas from hammering Klaviyo with duplicate sync passes; the server's
// in-process collector should be disabled when this runs.
func main() {
	log.Println("Starting Agency Pulse sync worker...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.Klaviyo.Enabled {
		log.Fatal("Klaviyo sync is disabled in config; nothing for the worker to do")
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

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unreachable, falling back to advisory locks: %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Lock TTL covers a full sync pass with headroom; a crashed worker
	// frees the slot within one interval.
	lock := distlock.NewLock(redisClient, store.DB(), "klaviyo-sync", cfg.Sync.Interval())

	client := klaviyo.NewClient(cfg.Klaviyo)
	collector := klaviyo.NewCollector(client, store, cfg.Sync)

	interval := cfg.Sync.Interval()
	log.Printf("Sync worker ready (interval=%s, lookback=%dd)", interval, cfg.Sync.LookbackDays)

	runLocked := func() {
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			log.Printf("Lock error, skipping sync pass: %v", err)
			return
		}
		if !acquired {
			log.Println("Another replica holds the sync lock, skipping")
			return
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				log.Printf("Failed to release sync lock: %v", err)
			}
		}()
		collector.SyncNow(ctx)
	}

	go func() {
		runLocked()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runLocked()
			}
		}
	}()

	// Heartbeat so the log shows liveness between sync passes.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Printf("Worker alive (last sync: %s, running: %v)",
					collector.LastSyncTime().Format(time.RFC3339), collector.IsRunning())
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	log.Println("Worker stopped")
}
