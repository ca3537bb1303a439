package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mockskills/collabzone/internal/app"
	"github.com/mockskills/collabzone/internal/auth"
	"github.com/mockskills/collabzone/internal/cache"
	"github.com/mockskills/collabzone/internal/config"
	"github.com/mockskills/collabzone/internal/domain/registration"
	httpx "github.com/mockskills/collabzone/internal/http"
	"github.com/mockskills/collabzone/internal/observability"
	"github.com/mockskills/collabzone/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "collabzone-api"

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env, serviceName)

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: serviceName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	store, closeStore, err := app.OpenStore(ctx, cfg, log, prom)
	if err != nil {
		log.Error("store init failed", "err", err)
		os.Exit(1)
	}

	notifier, err := app.NewNotifier(ctx, cfg, log, prom)
	if err != nil {
		log.Error("notifier init failed", "err", err)
		closeStore()
		os.Exit(1)
	}

	svc := service.NewRegistrationService(store, notifier, log, prom)

	// finish anything a previous process left between the two writes
	repairCtx, cancelRepair := context.WithTimeout(ctx, 30*time.Second)
	if n, err := svc.RepairFormattedIDs(repairCtx, cfg.RepairBatchSize); err != nil {
		log.Error("startup repair failed", "err", err, "repaired", n)
	} else if n > 0 {
		log.Info("startup repair completed", "repaired", n)
	}
	cancelRepair()

	checks := app.ReadinessChecks(cfg, store, notifier)

	// set up routers with the log
	router, err := httpx.NewRouter(log, cfg, httpx.Deps{
		Registrations: svc,
		Repairer:      svc,
		Checks:        checks,
		Prom:          prom,
		Gatherer:      reg,
		Tokens:        auth.NewManager(cfg.JWTSecret, 15*time.Minute),
		Cache:         cache.New[int64, registration.Registration](cfg.CacheTTL),
	})
	if err != nil {
		log.Error("router init failed", "err", err)
		os.Exit(1)
	}

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "notify", cfg.Notify.Transport)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		// in-flight requests are done; flush their confirmations
		if err := notifier.Close(ctx); err != nil {
			log.Error("notifier drain incomplete", "err", err)
		}

		closeStore()

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
