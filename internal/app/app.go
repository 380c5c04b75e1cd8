package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"AffiliationChecker/internal/config"
	"AffiliationChecker/internal/domain"
	"AffiliationChecker/internal/infrastructure/openalex"
	"AffiliationChecker/internal/infrastructure/report"
	"AffiliationChecker/internal/infrastructure/roster"
	"AffiliationChecker/internal/infrastructure/storage"
	"AffiliationChecker/internal/infrastructure/telegram"
	"AffiliationChecker/internal/logging"
	"AffiliationChecker/internal/metrics"
	"AffiliationChecker/internal/ports"
	"AffiliationChecker/internal/screening"
	"AffiliationChecker/internal/source"
	"AffiliationChecker/internal/usecase"
)

// Application wires configs to the screening use case and owns the resources of a run.
type Application struct {
	cfg     config.Config
	runner  *usecase.Runner
	sink    ports.VerdictSink
	store   *storage.VerdictStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New validates cfg and builds every adapter. The output file is locked until Close.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	engine, err := NewEngine(cfg.Screening)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	registry := source.NewRegistry()
	registry.Register(openalex.NewClient(&http.Client{}, cfg.Source.BaseURL, cfg.Source.PoliteIdentifier).
		WithSearchLimit(cfg.Source.SearchLimit))
	src, err := registry.Resolve(cfg.Source.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	fetcher := source.NewGated(src,
		source.NewLimiter(cfg.Source.RequestInterval, cfg.Source.Burst),
		source.Policy{
			Timeout:        cfg.Source.Timeout,
			MaxAttempts:    cfg.Source.MaxAttempts,
			InitialBackoff: cfg.Source.InitialBackoff,
			MaxBackoff:     cfg.Source.MaxBackoff,
		},
		m,
		baseLogger.With("component", "source."+src.Name()),
	)

	a := &Application{cfg: cfg, metrics: m, logger: baseLogger.With("component", "app")}

	var repository ports.VerdictRepository
	if cfg.Database.DSN != "" {
		store, err := storage.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open verdict store: %w", err)
		}
		a.store = store
		repository = store
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	sink, err := report.Open(cfg.Run.Output, cfg.Run.Resume)
	if err != nil {
		_ = a.store.Close()
		return nil, fmt.Errorf("open output: %w", err)
	}
	a.sink = sink

	a.runner, err = usecase.NewRunner(usecase.RunnerDeps{
		Candidates: roster.NewReader(cfg.Run.Input, baseLogger.With("component", "roster")),
		Fetcher:    fetcher,
		Engine:     engine,
		Sink:       sink,
		Repository: repository,
		Notifier:   notifier,
		Metrics:    m,
		Logger:     baseLogger.With("component", "runner"),
		Workers:    cfg.Run.Workers,
		Resume:     cfg.Run.Resume,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// NewEngine builds the screening engine from the rule section of the configuration.
func NewEngine(cfg config.ScreeningConfig) (*screening.Engine, error) {
	return screening.NewEngine(screening.Rules{
		Targets:      domain.NewCountrySet(cfg.TargetCountries...),
		MaxWorks:     cfg.MaxWorks,
		Patterns:     screening.NewPatternFilter(cfg.GenericPatterns),
		Institutions: screening.NewInstitutionMatcher(cfg.StopWords, cfg.Acronyms),
	})
}

// Run executes one screening pass over the configured roster.
func (a *Application) Run(ctx context.Context) (usecase.Summary, error) {
	return a.runner.Run(ctx)
}

// Close finalizes the output file, releases the store and writes the metrics textfile.
func (a *Application) Close() error {
	var errs []error
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close verdict store: %w", err))
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		a.logger.Error("shutdown incomplete", "error", errors.Join(errs...))
	}
	return errors.Join(errs...)
}
