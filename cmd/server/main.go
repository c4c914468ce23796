package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"playzone/internal/config"
	"playzone/internal/infra"
	"playzone/internal/metrics"
	"playzone/internal/router"
	"playzone/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid venue timezone")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	metrics.Init()

	svc, err := router.NewServices(cfg, db, rdb)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire services")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Async jobs: closing report mail and summary rebuilds
	pool := worker.NewPool(rdb)
	pool.Handle(worker.QueueReportEmail, worker.NewEmailWorker(svc.Summary, svc.Mailer, loc).Process)
	pool.Handle(worker.QueueSummaryRebuild, worker.NewRebuildWorker(svc.Summary, loc).Process)
	pool.Start(ctx, cfg.WorkerPoolSize)

	scheduler, err := worker.NewScheduler(loc, worker.Schedules{
		SessionTick:    cfg.SessionTickSpec,
		SummaryRebuild: cfg.SummaryRebuildSpec,
		ReportEmail:    cfg.ReportEmailSpec,
		ReportTo:       recipients(cfg.ReportEmailTo),
	}, worker.NewSessionTicker(svc.Sessions), svc.Dispatcher)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scheduler")
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router.New(cfg, db, rdb, svc),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("timezone", loc.String()).Msgf("playzone backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	// let a running tick finish before the pool goes away
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
	}
	cancel()
	_ = rdb.Close()
	log.Info().Msg("server exited")
}

// recipients splits REPORT_EMAIL_TO on commas.
func recipients(raw string) []string {
	var out []string
	for _, addr := range strings.Split(raw, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
