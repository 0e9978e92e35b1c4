package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crelogic/lease-abstractor/internal/bootstrap"
	"github.com/crelogic/lease-abstractor/internal/config"
	"github.com/crelogic/lease-abstractor/internal/core/domain"
	"github.com/crelogic/lease-abstractor/internal/observability/logging"
	"github.com/crelogic/lease-abstractor/internal/observability/metrics"
)

const serviceName = "lease-abstractor-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app.ConsolidateUC.WithObserver(metricsObserver{m: workerMetrics})

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	// One slot per tenant: the queue delivers one work item per upload
	// batch, and ProcessAll serializes a tenant internally, so the group
	// limit bounds concurrent Gemini and database load.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.WorkerConcurrency)

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeTenantQueued(ctx, func(_ context.Context, tenantID string) error {
		group.Go(func() error {
			processCtx, cancel := context.WithTimeout(groupCtx, time.Duration(cfg.ProcessTimeoutSeconds)*time.Second)
			defer cancel()

			processed, err := app.ConsolidateUC.ProcessAll(processCtx, tenantID)
			if err != nil {
				logger.Error("tenant_processing_stopped",
					"tenant_id", tenantID, "processed", processed, "error", err)
				return nil
			}
			logger.Info("tenant_processing_drained", "tenant_id", tenantID, "processed", processed)
			return nil
		})
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	_ = group.Wait()
}

// metricsObserver forwards consolidation progress into prometheus.
type metricsObserver struct {
	m *metrics.WorkerMetrics
}

func (o metricsObserver) ConsolidationStarted(queueLag time.Duration) {
	o.m.StartConsolidation()
	o.m.ObserveQueueLag(serviceName, queueLag)
}

func (o metricsObserver) ConsolidationFinished(duration time.Duration, err error) {
	o.m.FinishConsolidation(serviceName, duration, err)
}

func (o metricsObserver) OutcomeCommitted(overrides, supersededPeriods int, warnings []domain.DataQualityWarning) {
	o.m.RecordOverrides(serviceName, overrides)
	o.m.RecordSupersededPeriods(serviceName, supersededPeriods)
	for _, warning := range warnings {
		o.m.RecordWarning(serviceName, string(warning.Kind))
	}
}
