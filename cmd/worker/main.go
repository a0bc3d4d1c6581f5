package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ykudinov/docrouter/internal/bootstrap"
	"github.com/ykudinov/docrouter/internal/config"
	"github.com/ykudinov/docrouter/internal/observability/logging"
	"github.com/ykudinov/docrouter/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app.Escalations.SetObserver(func(resolution string, wait time.Duration) {
		workerMetrics.RecordEscalation(serviceName, resolution, wait)
	})
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsHandler(workerMetrics),
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		slog.Info("metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	group.Go(func() error {
		slog.Info("worker subscribed", "subject", cfg.NATSSubjectIngest)
		return app.Queue.SubscribeDocumentReceived(groupCtx, func(handlerCtx context.Context, documentID string) error {
			return routeDocument(handlerCtx, app, workerMetrics, documentID, cfg.EscalationTimeoutSec)
		})
	})

	group.Go(func() error {
		slog.Info("worker subscribed", "subject", cfg.NATSSubjectResolution)
		return app.Queue.SubscribeEscalationResolved(groupCtx, app.Escalations.Resolve)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		slog.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

func routeDocument(ctx context.Context, app *bootstrap.App, m *metrics.WorkerMetrics, documentID string, escalationTimeoutSec int) error {
	if doc, err := app.Repo.GetByID(ctx, documentID); err == nil {
		m.ObserveQueueLag(serviceName, time.Since(doc.CreatedAt))
	}

	// a run that may wait on a human gets headroom beyond the pure
	// processing budget; an unbounded escalation window means no deadline
	if escalationTimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Minute+time.Duration(escalationTimeoutSec)*time.Second)
		defer cancel()
	}

	m.StartDocument()
	start := time.Now()
	report, err := app.RouteUC.RouteByID(ctx, documentID)
	m.FinishDocument(serviceName, time.Since(start), err)
	if err == nil && report.File.UsedOCR {
		m.RecordOCRFallback(serviceName)
	}
	return err
}

func metricsHandler(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
