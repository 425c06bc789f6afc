package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/stellarflux/transit-simulator/core"
	"github.com/stellarflux/transit-simulator/internal/api"
	"github.com/stellarflux/transit-simulator/internal/config"
	"github.com/stellarflux/transit-simulator/internal/logging"
	"github.com/stellarflux/transit-simulator/internal/observability"
	"github.com/stellarflux/transit-simulator/store"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	addr := flag.String("addr", "", "Override the listen address from the config")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load config", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	log = logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	apiMetrics, err := observability.NewAPICollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise API metrics", logging.String("error", err.Error()))
		os.Exit(1)
	}
	engMetrics, err := observability.NewEngineCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise engine metrics", logging.String("error", err.Error()))
		os.Exit(1)
	}

	scenarios := store.NewScenarioStore()
	scenarios.Subscribe(func(store.Event) {
		apiMetrics.SetStoredScenarios(scenarios.Len())
	})
	loadScenarioDir(ctx, log, scenarios, flag.Arg(0))

	server := api.NewServer(cfg, scenarios, log, apiMetrics, engMetrics)

	log.Info(ctx, "starting transit server", logging.String("addr", cfg.Server.Addr))
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "server exited", logging.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down transit server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.HTTPServer().Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "shutdown failed", logging.String("error", err.Error()))
	}
}

// loadScenarioDir preloads every JSON scenario in dir into the store.
// Unreadable or unresolvable files are skipped with a warning so one bad
// scenario never blocks startup.
func loadScenarioDir(ctx context.Context, log logging.Logger, scenarios *store.ScenarioStore, dir string) {
	if dir == "" {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn(ctx, "skipping scenario preload", logging.String("dir", dir), logging.String("error", err.Error()))
		return
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			log.Warn(ctx, "skipping scenario", logging.String("path", path), logging.String("error", err.Error()))
			continue
		}
		sc, err := core.ParseScenario(f)
		f.Close()
		if err != nil {
			log.Warn(ctx, "skipping scenario", logging.String("path", path), logging.String("error", err.Error()))
			continue
		}
		if sc.Name == "" {
			sc.Name = strings.TrimSuffix(entry.Name(), ".json")
			sc.System.Name = sc.Name
		}
		if _, _, err := core.BuildScenario(sc); err != nil {
			log.Warn(ctx, "skipping unresolvable scenario", logging.String("path", path), logging.String("error", err.Error()))
			continue
		}
		if err := scenarios.Put(*sc); err != nil {
			log.Warn(ctx, "skipping scenario", logging.String("path", path), logging.String("error", err.Error()))
			continue
		}
		loaded++
	}
	log.Info(ctx, "preloaded scenarios", logging.String("dir", dir), logging.Int("count", loaded))
}
