package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"jobscreen/internal/browser"
	"jobscreen/internal/classify"
	"jobscreen/internal/config"
	"jobscreen/internal/harvest"
	"jobscreen/internal/ledger"
	"jobscreen/internal/monitoring"
	"jobscreen/internal/pipeline"
	"jobscreen/internal/report"
	"jobscreen/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	// fatal startup conditions first: profile and credential
	profile, err := cfg.LoadProfile()
	if err != nil {
		logger.Fatal("evaluation profile unavailable", zap.Error(err))
	}
	backendKind, err := cfg.Backend()
	if err != nil {
		logger.Fatal("no screening backend", zap.Error(err))
	}

	// interruption is safe: each saved record and each ledger upsert is
	// individually durable
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, cleanup, err := buildRecordStore(ctx, cfg)
	if err != nil {
		logger.Fatal("record store unavailable", zap.Error(err))
	}
	defer cleanup()

	ldg, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		logger.Fatal("ledger unavailable", zap.Error(err))
	}

	reports, err := report.NewWriter(cfg.ReportDir())
	if err != nil {
		logger.Fatal("report dir unavailable", zap.Error(err))
	}

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		srv := monitoring.NewServer(cfg.MetricsAddr, metrics, prometheus.DefaultGatherer, logger)
		go srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var seenCache *store.SeenCache
	if cfg.RedisAddr != "" {
		seenCache = store.NewSeenCache(cfg.RedisAddr)
		if err := seenCache.Ping(ctx); err != nil {
			logger.Warn("seen cache unreachable, continuing without it", zap.Error(err))
			seenCache = nil
		}
	}

	var harvester pipeline.Harvester
	if !cfg.SkipHarvest {
		session, err := browser.Connect(ctx, cfg.BrowserURL)
		if err != nil {
			logger.Fatal("no authenticated browser session", zap.Error(err))
		}
		defer session.Close()

		harvester = harvest.New(session, records, seenCache, metrics, harvest.DefaultSelectors(), harvest.Config{
			ListingURL:  cfg.ListingURL,
			ItemTimeout: cfg.ItemTimeout(),
			PageTimeout: cfg.PageTimeout(),
			DelayMin:    cfg.DelayMin(),
			DelayMax:    cfg.DelayMax(),
			MaxPages:    cfg.MaxPages,
		}, logger.With(zap.String("component", "harvest")))
	}

	classifier := classify.New(buildBackend(backendKind, cfg), profile)
	logger.Info("screening backend selected", zap.String("backend", string(backendKind)))

	controller := pipeline.New(pipeline.Deps{
		Records:     records,
		Ledger:      ldg,
		Harvester:   harvester,
		Classifier:  classifier,
		Reports:     reports,
		Metrics:     metrics,
		Logger:      logger.With(zap.String("component", "pipeline")),
		SkipHarvest: cfg.SkipHarvest,
	})

	summary, err := controller.Run(ctx)
	if err != nil {
		logger.Fatal("run aborted",
			zap.Error(err),
			zap.Int("harvested", summary.Harvest.Saved),
			zap.Int("classified", summary.Classified))
	}
}

func buildRecordStore(ctx context.Context, cfg *config.Config) (store.RecordStore, func(), error) {
	switch cfg.RecordBackend {
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	default:
		fs, err := store.NewFileStore(cfg.RecordsDir())
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

func buildBackend(kind config.AIBackend, cfg *config.Config) classify.Backend {
	if kind == config.BackendAnthropic {
		return classify.NewAnthropicBackend(cfg.AnthropicEndpoint, cfg.AnthropicModel, cfg.AnthropicAPIKey)
	}
	return classify.NewOpenAIBackend(cfg.OpenAIEndpoint, cfg.OpenAIModel, cfg.OpenAIAPIKey)
}
