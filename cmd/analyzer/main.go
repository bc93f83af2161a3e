// v2
// cmd/analyzer/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecocampus/analyzer/internal/aggregate"
	"ecocampus/analyzer/internal/breaker"
	"ecocampus/analyzer/internal/campus"
	"ecocampus/analyzer/internal/config"
	"ecocampus/analyzer/internal/engine"
	"ecocampus/analyzer/internal/httpapi"
	"ecocampus/analyzer/internal/ledger"
	"ecocampus/analyzer/internal/logging"
	"ecocampus/analyzer/internal/metrics"
	"ecocampus/analyzer/internal/oracle"
	"ecocampus/analyzer/internal/pipeline"
	"ecocampus/analyzer/internal/sim"
)

func main() {
	log, logFile := logging.Init()
	defer logFile.Close()

	cfg, err := config.LoadEnvAndFiles()
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}
	log.Info("config loaded",
		"bind", cfg.HTTPBind, "model", cfg.OracleModel,
		"budgetLevel", cfg.DefaultDepth, "layout", cfg.LayoutPath)

	layout, err := config.LoadLayout(cfg.LayoutPath)
	if err != nil {
		log.Error("campus layout load failed", "error", err)
		os.Exit(1)
	}
	log.Info("campus layout loaded", "campus", layout.CampusName())

	store := campus.NewObservationStore()
	if cfg.ObservationsPath != "" {
		if err := store.SeedFromFile(cfg.ObservationsPath); err != nil {
			log.Error("observation seed failed", "error", err)
			os.Exit(1)
		}
		log.Info("observations seeded", "rooms", store.Len())
	}

	met := metrics.NewMetrics()
	oracleClient := oracle.NewClient(oracle.Options{
		BaseURL:     cfg.OracleBaseURL,
		APIKey:      cfg.OracleAPIKey,
		Model:       cfg.OracleModel,
		Temperature: cfg.OracleTemperature,
		Timeout:     cfg.OracleTimeout,
		Breaker: breaker.Config{
			MaxFailures:  cfg.BreakerMaxFailures,
			ResetTimeout: cfg.BreakerResetTimeout,
		},
		Metrics: met,
	}, log)

	pub := ledger.NewPublisher(cfg.KafkaBrokers, cfg.LedgerTopic, log)
	defer pub.Close()

	pipe := pipeline.New(oracleClient, log)
	agg := aggregate.New(oracleClient, log)
	eng := engine.New(layout, pipe, agg, pub, met, log)
	simEngine := sim.NewEngine(eng, log)

	h := &httpapi.Handlers{
		Log:    log,
		Cfg:    cfg,
		Layout: layout,
		Store:  store,
		Engine: eng,
		Sim:    simEngine,
		Pub:    pub,
	}
	srv := httpapi.NewServer(cfg.HTTPBind, h, met, log)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()
	log.Info("analyzer service started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("analyzer service stopped")
}
