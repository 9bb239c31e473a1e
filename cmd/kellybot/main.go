package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/kellybot/config"
	"github.com/alejandrodnm/kellybot/internal/adapters/amm"
	"github.com/alejandrodnm/kellybot/internal/adapters/cache"
	"github.com/alejandrodnm/kellybot/internal/adapters/manifold"
	"github.com/alejandrodnm/kellybot/internal/adapters/notify"
	"github.com/alejandrodnm/kellybot/internal/adapters/storage"
	"github.com/alejandrodnm/kellybot/internal/advisor"
	"github.com/alejandrodnm/kellybot/internal/ports"
	"github.com/alejandrodnm/kellybot/internal/sizing"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one evaluation cycle and exit")
	dryRun := flag.Bool("dry-run", false, "do not persist recommendations")
	verbose := flag.Bool("verbose", false, "set log level to debug (includes Newton steps)")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full recommendation table (default: compact 1-line)")
	slug := flag.String("slug", "", "evaluate a single market instead of the watchlist")
	estimate := flag.Float64("estimate", -1, "our probability of YES for -slug")
	history := flag.Duration("history", 0, "print stored recommendations from the last duration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *history > 0 {
		if err := runHistory(ctx, cfg.Storage.DSN, notify.NewConsole(*table), *history); err != nil {
			slog.Error("history failed", "err", err)
			cancel()
			os.Exit(1)
		}
		return
	}

	entries, adHoc, err := watchlist(cfg, *slug, *estimate)
	if err != nil {
		slog.Error("invalid watchlist", "err", err)
		os.Exit(1)
	}

	slog.Info("kellybot starting",
		"config", *configPath,
		"interval", cfg.Interval(),
		"markets", len(entries),
		"balance", cfg.Bankroll.Balance,
		"illiquid_ev", cfg.Bankroll.IlliquidEV,
		"dry_run", *dryRun,
		"once", *once || adHoc,
	)

	var store *storage.SQLiteStorage
	if !*dryRun {
		store, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
	}

	notifier := notify.NewConsole(*table || adHoc)

	client := manifold.NewClient(cfg.API.ManifoldBase)
	markets := cache.NewMarkets(client, cfg.CacheTTL())
	optimizer := sizing.NewOptimizer(sizing.Config{
		Iterations: cfg.Kelly.Iterations,
		Tolerance:  cfg.Kelly.Tolerance,
		AMMStep:    cfg.Kelly.AMMStep,
	}, markets, amm.NewSimulator(markets))

	advCfg := advisor.DefaultConfig()
	advCfg.Interval = cfg.Interval()
	advCfg.Workers = cfg.Advisor.Workers
	advCfg.Deference = cfg.Kelly.Deference
	advCfg.Balance = cfg.Bankroll.Balance
	advCfg.IlliquidEV = cfg.Bankroll.IlliquidEV
	advCfg.DryRun = *once || adHoc
	advCfg.Filter = advisor.FilterConfig{
		MinAmount:       cfg.Advisor.MinAmount,
		MinHoursToClose: cfg.Advisor.MinHoursToClose,
	}

	// nil explícito: una interfaz con un *SQLiteStorage nil no es nil
	var adv *advisor.Advisor
	if store != nil {
		adv = advisor.New(advCfg, entries, markets, optimizer, store, notifier)
	} else {
		adv = advisor.New(advCfg, entries, markets, optimizer, nil, notifier)
	}

	if err := adv.Run(ctx); err != nil {
		slog.Error("advisor exited with error", "err", err)
		if store != nil {
			store.Close()
		}
		os.Exit(1)
	}

	slog.Info("kellybot stopped cleanly")
}

// watchlist construye las entradas a evaluar: la del flag -slug si se pasa,
// o las del archivo de configuración. El bool indica evaluación ad-hoc.
func watchlist(cfg *config.Config, slug string, estimate float64) ([]advisor.Entry, bool, error) {
	if slug != "" {
		if estimate < 0 || estimate > 1 {
			return nil, false, fmt.Errorf("-estimate must be in [0,1] when -slug is set, got %v", estimate)
		}
		return []advisor.Entry{{Slug: slug, Estimate: estimate}}, true, nil
	}

	if len(cfg.Watchlist) == 0 {
		return nil, false, fmt.Errorf("watchlist is empty; add entries to the config or use -slug")
	}
	entries := make([]advisor.Entry, 0, len(cfg.Watchlist))
	for _, w := range cfg.Watchlist {
		entries = append(entries, advisor.Entry{Slug: w.Slug, Estimate: w.Estimate})
	}
	return entries, false, nil
}

// runHistory imprime las recomendaciones guardadas en la ventana dada.
// Solo lee: no necesita watchlist.
func runHistory(ctx context.Context, dsn string, notifier ports.Notifier, window time.Duration) error {
	store, err := storage.NewSQLiteStorage(dsn)
	if err != nil {
		return fmt.Errorf("open storage %q: %w", dsn, err)
	}
	defer store.Close()

	to := time.Now()
	advice, err := store.GetHistory(ctx, to.Add(-window), to)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	slog.Info("history", "window", window, "recommendations", len(advice))
	return notifier.Notify(ctx, advice)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
