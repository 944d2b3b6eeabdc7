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

	"example.com/companion/internal/api"
	"example.com/companion/internal/config"
	"example.com/companion/internal/connectivity"
	"example.com/companion/internal/family"
	"example.com/companion/internal/notify"
	notifypg "example.com/companion/internal/notify/postgres"
	"example.com/companion/internal/scheduler"
	"example.com/companion/internal/telemetry"
	"example.com/companion/internal/transport"
	httptransport "example.com/companion/internal/transport/http"
	"example.com/companion/internal/transport/watchos"
	"example.com/companion/internal/transport/wearos"
	"example.com/companion/internal/voice"
	"example.com/companion/internal/widget"
	"example.com/companion/internal/workout"
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

	// Loopback links stand in for the phone-side platform integrations.
	wearLink := wearos.NewLoopback(cfg.WearOSDeviceIDs...)
	watchLink := watchos.NewLoopback(cfg.WatchOSDeviceIDs...)
	fleet := transport.NewFleet(wearos.New(wearLink), watchos.New(watchLink))

	monitor := connectivity.NewMonitor(fleet)
	sched := scheduler.NewTicker()

	registry := widget.NewRegistry(fleet, monitor, sched)
	dispatcher := notify.NewDispatcher(fleet, monitor, store, cfg.QueueRetention, cfg.ActionCap, cfg.QueueFlushBatch)

	producer := telemetry.NewKafkaWriter(cfg.KafkaBrokers)
	defer producer.Close()

	schemaRegistry := telemetry.NewRegistryClient(cfg.SchemaRegistryURL)
	sink := telemetry.NewKafkaSink(producer, schemaRegistry, cfg.TelemetryTopic)
	cache := telemetry.NewCache(cfg.TelemetryCacheSize)
	pipeline := telemetry.NewPipeline(fleet, monitor, cache, sink, cfg.FamilyID)

	workouts := workout.NewManager(sched, cfg.WorkoutTickInterval, cache, dispatcher, cfg.FamilyID,
		workout.WithCompletionSink(sink))
	defer workouts.Close()

	familyService := family.NewService(dispatcher, workouts, monitor, cfg.FamilyID)
	interpreter := voice.NewInterpreter(familyService, cfg.VoiceMaxConfidence, cfg.VoiceHistorySize)

	// Reconnect side effects: re-push widgets, drain the queue, pull samples.
	monitor.OnConnect(func(ctx context.Context, state connectivity.State) {
		registry.PushAll(ctx)
		if _, err := dispatcher.Flush(ctx); err != nil {
			log.Printf("reconnect flush error: %v", err)
		}
		if _, err := pipeline.Sync(ctx); err != nil {
			log.Printf("reconnect sync error: %v", err)
		}
	})

	monitor.CheckConnectivity(ctx)
	sched.Schedule(cfg.ConnectivityPollInterval, func() {
		monitor.CheckConnectivity(ctx)
	})
	sched.Schedule(cfg.TelemetrySyncInterval, func() {
		if _, err := pipeline.Sync(ctx); err != nil {
			log.Printf("telemetry sync error: %v", err)
		}
	})
	sched.Schedule(cfg.QueueFlushInterval, func() {
		if !monitor.Last().Connected {
			return
		}
		if _, err := dispatcher.Flush(ctx); err != nil {
			log.Printf("queue flush error: %v", err)
		}
	})

	handler := api.NewHandler(registry, dispatcher, interpreter, workouts, monitor, cfg.FamilyID)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address: cfg.HTTPAddress,
	}, logger(mux))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("companion-sync listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
