package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/kfin/cache"
	"github.com/jonwraymond/kfin/config"
	"github.com/jonwraymond/kfin/dart"
	"github.com/jonwraymond/kfin/entity"
	"github.com/jonwraymond/kfin/health"
	"github.com/jonwraymond/kfin/observe"
	"github.com/jonwraymond/kfin/ratelimit"
	"github.com/jonwraymond/kfin/resilience"
)

// errNoSnapshot is returned when a command needs the company list, no
// snapshot exists and the caller asked not to download one.
var errNoSnapshot = errors.New("no company snapshot; run \"kfin sync\" first")

// app holds everything one command invocation shares. Nothing outlives it.
type app struct {
	cfg     *config.Config
	obs     *observe.Observer
	logger  observe.Logger
	metrics observe.Metrics
	tiers   *cache.Tiers
	limiter *ratelimit.Limiter

	client *dart.Client
}

func (g *globals) open(ctx context.Context) (*app, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	logger := obs.Logger()

	tiers, err := cache.NewTiers(cfg.TiersConfig(logger, metrics))
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}

	limiter := ratelimit.New(cfg.LimiterConfig())
	if err := limiter.LoadUsage(cfg.DART.UsagePath); err != nil {
		logger.Warn(ctx, "quota usage unreadable, starting from zero",
			observe.Field{Key: "path", Value: cfg.DART.UsagePath},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}

	return &app{
		cfg:     cfg,
		obs:     obs,
		logger:  logger,
		metrics: metrics,
		tiers:   tiers,
		limiter: limiter,
	}, nil
}

// Close persists quota usage when the upstream was used, then releases the
// cache and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.client != nil {
		errs = append(errs, a.limiter.SaveUsage(a.cfg.DART.UsagePath))
	}
	errs = append(errs, a.tiers.Close())

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	errs = append(errs, a.obs.Shutdown(ctx))
	return errors.Join(errs...)
}

// opendart returns the OpenDART client, building it on first use. Every request
// passes the circuit breaker, retry, the quota limiter and a per-attempt
// timeout, in that order.
func (a *app) opendart(ctx context.Context) (*dart.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	key, err := a.cfg.ResolveAPIKey(ctx, nil)
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			return nil, fmt.Errorf("%w (set OPENDART_API_KEY or dart.api_key)", err)
		}
		return nil, err
	}

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:         dart.Provider,
		MaxFailures:  a.cfg.DART.BreakerFailures,
		ResetTimeout: a.cfg.DART.BreakerReset,
		IsFailure:    resilience.IsRetryable,
		OnStateChange: func(from, to resilience.State) {
			a.logger.Warn(ctx, "circuit state changed",
				observe.Field{Key: "upstream", Value: dart.Provider},
				observe.Field{Key: "from", Value: from.String()},
				observe.Field{Key: "to", Value: to.String()},
			)
		},
	})
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: a.cfg.DART.MaxAttempts,
		Jitter:      true,
		RetryIf:     resilience.IsRetryable,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			a.logger.Info(ctx, "retrying upstream call",
				observe.Field{Key: "upstream", Value: dart.Provider},
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
				observe.Field{Key: "error", Value: err.Error()},
			)
		},
	})
	executor := resilience.NewExecutor(
		resilience.WithCircuitBreaker(breaker),
		resilience.WithRetry(retry),
		resilience.WithLimiter(a.limiter),
		resilience.WithTimeout(a.cfg.DART.Timeout),
	)
	middleware := observe.NewMiddleware(observe.NewTracer(a.obs.Tracer()), a.metrics, a.logger)

	client, err := dart.New(key,
		dart.WithBaseURL(a.cfg.DART.BaseURL),
		dart.WithCache(a.tiers.Through),
		dart.WithExecutor(executor),
		dart.WithMiddleware(middleware),
		dart.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// index loads the company snapshot into a new Index. A missing or malformed
// snapshot is downloaded when download is set and reported as errNoSnapshot
// otherwise.
func (a *app) index(ctx context.Context, download bool) (*entity.Index, error) {
	idx := entity.NewIndex(a.cfg.IndexOptions(a.logger))

	snap, ok := entity.LoadSnapshotFile(a.cfg.Index.SnapshotPath)
	if ok {
		idx.Load(snap.Companies)
		if age := time.Since(snap.GeneratedAt); a.cfg.Index.RefreshAfter > 0 && age > a.cfg.Index.RefreshAfter {
			a.logger.Warn(ctx, "company snapshot is stale; run kfin sync",
				observe.Field{Key: "path", Value: a.cfg.Index.SnapshotPath},
				observe.Field{Key: "age_hours", Value: int(age.Hours())},
			)
		}
		return idx, nil
	}
	if !download {
		return idx, errNoSnapshot
	}

	records, err := a.sync(ctx)
	if err != nil {
		return nil, err
	}
	idx.Load(records)
	return idx, nil
}

// sync downloads the company list and replaces the snapshot file.
func (a *app) sync(ctx context.Context) ([]entity.CompanyRecord, error) {
	client, err := a.opendart(ctx)
	if err != nil {
		return nil, err
	}
	records, err := client.CorpCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("download company list: %w", err)
	}
	if err := entity.SaveSnapshotFile(a.cfg.Index.SnapshotPath, records, time.Now()); err != nil {
		return nil, err
	}
	a.logger.Info(ctx, "company snapshot saved",
		observe.Field{Key: "path", Value: a.cfg.Index.SnapshotPath},
		observe.Field{Key: "companies", Value: len(records)},
	)
	return records, nil
}

// aggregator builds the health checks over idx, the cache tiers and the
// quota limiter.
func (a *app) aggregator(idx *entity.Index) *health.Aggregator {
	agg := health.NewAggregator()
	agg.Register(health.NewIndexChecker(idx))

	var (
		store  health.CacheStore
		memory health.MemoryStats
	)
	if a.tiers.Persistent != nil {
		store = a.tiers.Persistent
	}
	if a.tiers.Memory != nil {
		memory = a.tiers.Memory
	}
	agg.Register(health.NewCacheChecker(store, memory))
	agg.Register(health.NewQuotaChecker(a.limiter, health.DefaultQuotaWarnFraction))
	return agg
}

// withApp opens the app, runs fn and closes the app, reporting errors on
// stderr.
func (g *globals) withApp(ctx context.Context, fn func(*app) error) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	err = fn(a)
	if cerr := a.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
