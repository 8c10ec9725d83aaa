package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/aforos-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/aforos-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/aforos-dashboard/internal/config"
	"github.com/couchcryptid/aforos-dashboard/internal/dataset"
	"github.com/couchcryptid/aforos-dashboard/internal/domain"
	"github.com/couchcryptid/aforos-dashboard/internal/observability"
	"github.com/couchcryptid/aforos-dashboard/internal/pipeline"
	"github.com/couchcryptid/aforos-dashboard/internal/presentation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger, metrics)
	stop()

	if err != nil {
		logger.Error("dashboard exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// run serves the dashboard until ctx is cancelled or a component fails.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ds, err := loadDataset(cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("load dataset %s: %w", cfg.DatasetPath, err)
	}

	graph, err := pipeline.NewGraph()
	if err != nil {
		return fmt.Errorf("build view graph: %w", err)
	}

	options := domain.FilterOptions(ds)
	engine := domain.NewEngine(ds, cfg.HistoryCutoffYear)
	deriver := pipeline.NewCachedDeriver(engine, graph, cfg.ViewCacheSize, metrics)
	renderer := presentation.NewRenderer(ds)

	var sinks []pipeline.ViewSink
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, renderer, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, writer)
		logger.Info("kafka view publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaViewsTopic)
	} else {
		logger.Info("kafka view publishing disabled")
	}

	initial := options.Default()
	if !options.Contains(initial) {
		logger.Warn("dataset has no valid years; year-filtered views will be empty", "state", initial)
	}

	p := pipeline.New(deriver, graph, initial, sinks, logger, metrics, nil)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, renderer, options, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return p.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func loadDataset(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*domain.Dataset, error) {
	start := time.Now()

	raw, err := dataset.Load(cfg.DatasetPath, cfg.DatasetDelimiter)
	if err != nil {
		return nil, err
	}
	ds, err := domain.Clean(raw, domain.DefaultSchema())
	if err != nil {
		return nil, err
	}

	report := ds.Report()
	metrics.DatasetRows.Set(float64(report.Rows))
	metrics.MissingCells.WithLabelValues("year").Add(float64(report.MissingYears))
	metrics.MissingCells.WithLabelValues("month").Add(float64(report.MissingMonths))
	metrics.MissingCells.WithLabelValues("count").Add(float64(report.MissingCounts))
	metrics.DatasetLoadDur.Set(time.Since(start).Seconds())

	logger.Info("dataset loaded",
		"path", cfg.DatasetPath,
		"rows", report.Rows,
		"missing_years", report.MissingYears,
		"missing_months", report.MissingMonths,
		"missing_counts", report.MissingCounts,
		"years", ds.Years(),
	)
	return ds, nil
}
