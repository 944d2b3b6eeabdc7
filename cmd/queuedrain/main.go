package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/companion/internal/config"
	notifypg "example.com/companion/internal/notify/postgres"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	store := notifypg.NewStore(pool, cfg.AuditHistorySize)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}
	go func() {
		log.Printf("queuedrain metrics listening on %s", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	ticker := time.NewTicker(cfg.QueueFlushInterval)
	defer ticker.Stop()

	log.Printf("queuedrain started (interval=%s, retention=%s)", cfg.QueueFlushInterval, cfg.QueueRetention)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ctx.Done():
			goto shutdown
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-cfg.QueueRetention)
			expired, err := store.ExpireOlderThan(ctx, cutoff)
			if err != nil {
				log.Printf("retention sweep error: %v", err)
			} else if expired > 0 {
				log.Printf("retention sweep dropped %d entries", expired)
			}

			if depth, err := store.QueueDepth(ctx); err == nil {
				log.Printf("queue depth: %d", depth)
			}
		case <-stop:
			log.Println("queuedrain received shutdown signal")
			cancel()
			goto shutdown
		}
	}

shutdown:
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}
}
