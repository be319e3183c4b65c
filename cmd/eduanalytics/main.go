package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"eduanalytics/internal/analytics"
	"eduanalytics/internal/cfg"
	"eduanalytics/internal/metrics"
	"eduanalytics/internal/ml"
	"eduanalytics/internal/storage"
)

const usage = `Usage: eduanalytics [flags] <command> [command flags]

Commands:
  import    load students, assessments and indicators from a JSON file
  risk      classify a student's behavioral risk
  success   estimate the success probability of an activity
  progress  analyze a student's assessment history
  trend     summarize one indicator over a trailing window
  compare   compare one indicator across two periods
  profile   build the socio-emotional profile of a student
  models    list model versions and the active strategies
  serve     expose /metrics and /health

Flags:
`

// app holds the wiring shared by every command.
type app struct {
	settings cfg.Settings
	metrics  *metrics.Metrics
	engine   *ml.Engine
	store    *storage.Store
	cache    *redis.Client
	service  analytics.Service
	out      io.Writer
}

func main() {
	var (
		logLevel  = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
		dataPath  = flag.String("data", "", "Path to data directory (overrides DATA_PATH)")
		modelPath = flag.String("models", "", "Path to model artifacts (overrides MODEL_PATH)")
		version   = flag.String("model-version", "", "Model version directory or \"latest\" (overrides MODEL_VERSION)")
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	settings, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if *logLevel != "" {
		settings.LogLevel = *logLevel
	}
	if *dataPath != "" {
		settings.DataPath = *dataPath
	}
	if *modelPath != "" {
		settings.ModelPath = *modelPath
	}
	if *version != "" {
		settings.ModelVersion = *version
	}
	zerolog.SetGlobalLevel(settings.Level())

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, settings, metrics.New(), os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("initialization failed")
	}
	defer a.close()

	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, errUnknownCommand) {
			flag.Usage()
		}
		log.Error().Err(err).Str("command", flag.Arg(0)).Msg("command failed")
		a.close()
		os.Exit(1)
	}
}

func newApp(ctx context.Context, settings cfg.Settings, m *metrics.Metrics, out io.Writer) (*app, error) {
	a := &app{settings: settings, metrics: m, out: out}

	engine, err := ml.Load(ctx, ml.Options{
		ModelPath: settings.ModelPath,
		Version:   settings.ModelVersion,
		Metrics:   a.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}
	a.engine = engine

	if err := os.MkdirAll(settings.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	store, err := storage.New(settings.DataPath)
	if err != nil {
		return nil, err
	}
	a.store = store

	if settings.RedisURL != "" {
		opts, err := redis.ParseURL(settings.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.cache = redis.NewClient(opts)
		if err := a.cache.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
			a.cache.Close()
			a.cache = nil
		}
	}

	a.service = analytics.NewService(a.store, a.engine, analytics.Options{
		Cache:           a.cache,
		CacheTTL:        settings.CacheTTL,
		TrendWindowDays: settings.TrendWindowDays,
		Metrics:         a.metrics,
		Logger:          log.Logger,
	})
	return a, nil
}

func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis client")
		}
		a.cache = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
		a.store = nil
	}
}

// emit writes v as indented JSON.
func (a *app) emit(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
