package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mockskills/collabzone/internal/app"
	"github.com/mockskills/collabzone/internal/config"
	"github.com/mockskills/collabzone/internal/notifications"
	"github.com/mockskills/collabzone/internal/observability"
	"github.com/mockskills/collabzone/internal/service"
	"github.com/mockskills/collabzone/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
)

const serviceName = "collabzone-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	log := observability.NewLogger(cfg.Env, serviceName)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	prom := observability.NewProm(prometheus.NewRegistry())

	store, closeStore, err := app.OpenStore(ctx, cfg, log, prom)
	if err != nil {
		log.Error("store init failed", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	// repair never sends confirmations
	svc := service.NewRegistrationService(store, notifications.Discard{}, log, prom)

	w := worker.New(worker.Config{
		Interval:  cfg.RepairInterval,
		BatchSize: cfg.RepairBatchSize,
	}, svc, log)

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           w.HealthHandler(store),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server failed", "err", err)
		}
	}()

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
