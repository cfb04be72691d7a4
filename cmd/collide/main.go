// cmd/collide/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/opd-ai/go-collide/pkg/config"
	"github.com/opd-ai/go-collide/pkg/event"
	"github.com/opd-ai/go-collide/pkg/force"
	"github.com/opd-ai/go-collide/pkg/health"
	"github.com/opd-ai/go-collide/pkg/logging"
	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/simulation"
)

// layout is the JSON document written at the end of a run
type layout struct {
	Nodes []layoutNode `json:"nodes"`
}

type layoutNode struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	R     float64 `json:"r"`
}

func main() {
	logger := logging.NewLogger()
	ctx := logging.WithRunID(context.Background(), logging.GenerateRunID())

	configPath := flag.String("config", "collide.json", "Path to configuration file")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	outPath := flag.String("out", "-", "Path to write the final layout, - for stdout")
	ticks := flag.Int("ticks", -1, "Override the maximum number of ticks")
	healthAddr := flag.String("health", "", "Serve /health and /ready on this address until interrupted")
	flag.Parse()

	// Create default configuration file if requested
	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	cfg, err := loadConfig(ctx, logger, *configPath)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", *configPath,
		)
		os.Exit(1)
	}
	if *ticks >= 0 {
		cfg.Simulation.MaxTicks = *ticks
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nodes, radii := simulation.Scatter(cfg.Nodes)
	collide := simulation.NewCollide(cfg, radii)

	bus := event.NewEventBus()
	var healthServer *http.Server
	if *healthAddr != "" {
		healthServer = startHealthServer(ctx, logger, *healthAddr, bus, cfg.Simulation.TickInterval)
	}

	sim := simulation.New(nodes, cfg.Simulation, logger, bus).SetForce("collide", collide)
	radii = collide.Radii()

	logOverlap(ctx, logger, "Initial overlap", nodes, radii)

	if err := sim.Run(ctx); err != nil {
		logger.Warn(ctx, "Simulation interrupted", "error", err.Error())
	}

	logOverlap(ctx, logger, "Final overlap", nodes, radii)

	if err := writeLayout(*outPath, nodes, radii); err != nil {
		logger.Error(ctx, "Failed to write layout", err,
			"out", *outPath,
		)
		os.Exit(1)
	}

	if healthServer != nil {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Health check server shutdown failed", err)
		}
	}
}

// startHealthServer serves probes backed by the run's events. The stall limit
// is ten tick intervals, and at least five seconds.
func startHealthServer(ctx context.Context, logger *logging.Logger, addr string, bus *event.Bus, interval time.Duration) *http.Server {
	progress := health.NewProgress()
	progress.Observe(bus)

	checker := health.NewHealthChecker(progress)
	checker.AddCheck(health.NewStallCheck(progress, max(10*interval, 5*time.Second)))
	checker.AddCheck(health.NewSettledCheck(progress))
	checker.AddCheck(health.NewMemoryHealthCheck(500, func() int64 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return int64(m.Alloc / 1024 / 1024)
	}))

	server := &http.Server{
		Addr:         addr,
		Handler:      checker.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info(ctx, "Starting health check server",
			"address", addr,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()

	return server
}

// loadConfig reads the configuration file, falling back to defaults when it
// does not exist, and applies environment overrides.
func loadConfig(ctx context.Context, logger *logging.Logger, path string) (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", path,
		)
		cfg = config.DefaultConfig()
	} else {
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		return nil, logging.WrapError(err, "failed to apply environment configuration")
	}
	return cfg, nil
}

func logOverlap(ctx context.Context, logger *logging.Logger, msg string, nodes []*force.Node, radii []float64) {
	overlap := physics.MeasureOverlap(simulation.Circles(nodes, radii))
	logger.Info(ctx, msg,
		"pairs", overlap.Pairs,
		"total", overlap.Total,
		"max", overlap.Max,
	)
}

func writeLayout(path string, nodes []*force.Node, radii []float64) error {
	doc := layout{Nodes: make([]layoutNode, len(nodes))}
	for i, n := range nodes {
		doc.Nodes[i] = layoutNode{Index: n.Index, X: n.X, Y: n.Y, R: radii[n.Index]}
	}

	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
