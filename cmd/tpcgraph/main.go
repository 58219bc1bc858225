// Command tpcgraph runs a demo thread-per-node graph: either a small
// multiply/filter/print pipeline or a vector throughput benchmark.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/tpcgraph/bootstrap"
	"github.com/kbukum/tpcgraph/component"
	"github.com/kbukum/tpcgraph/config"
	"github.com/kbukum/tpcgraph/graph"
	"github.com/kbukum/tpcgraph/logger"
	"github.com/kbukum/tpcgraph/monitor"
	"github.com/kbukum/tpcgraph/node"
	"github.com/kbukum/tpcgraph/observability"
	"github.com/kbukum/tpcgraph/sysctl"
	"github.com/kbukum/tpcgraph/telemetry"
	"github.com/kbukum/tpcgraph/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	configFile := flags.StringP("config", "c", "", "path to config.yml")
	graphKind := flags.StringP("graph", "g", "", "graph to run: simple or perf")
	items := flags.IntP("items", "n", -1, "items to emit, 0 runs until interrupted")
	showVersion := flags.BoolP("version", "v", false, "print version and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(version.Banner(serviceName))
		return nil
	}

	var cfg Config
	opts := []config.LoaderOption{config.WithDefaults(loaderDefaults())}
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return err
	}
	if *graphKind != "" {
		cfg.Pipeline.Graph = *graphKind
	}
	if *items >= 0 {
		cfg.Pipeline.Items = *items
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}

	g := graph.New()
	store := telemetry.NewStore()
	if err := registerComponents(app, g, store); err != nil {
		return err
	}

	return app.RunTask(context.Background(), func(ctx context.Context) error {
		return runPipeline(ctx, app, g, store)
	})
}

// registerComponents adds the optional OTLP exporters and the monitor.
// Exporters come first so they stop last and flush the final reports.
func registerComponents(app *bootstrap.App[*Config], g *graph.Graph, store *telemetry.Store) error {
	cfg := app.Cfg

	if cfg.Metrics.Enabled {
		var shutdown func(context.Context) error
		c := component.NewFunc("metrics",
			func(ctx context.Context) error {
				mp, err := observability.InitMeter(ctx, cfg.Metrics)
				if err != nil {
					return err
				}
				shutdown = mp.Shutdown
				return nil
			},
			func(ctx context.Context) error {
				if shutdown == nil {
					return nil
				}
				return shutdown(ctx)
			},
		).WithDescription(component.Description{Type: "metrics", Details: cfg.Metrics.Endpoint})
		if err := app.RegisterComponent(c); err != nil {
			return err
		}
	}

	if cfg.Tracing.Enabled {
		var shutdown func(context.Context) error
		c := component.NewFunc("tracing",
			func(ctx context.Context) error {
				tp, err := observability.InitTracer(ctx, cfg.Tracing)
				if err != nil {
					return err
				}
				shutdown = tp.Shutdown
				return nil
			},
			func(ctx context.Context) error {
				if shutdown == nil {
					return nil
				}
				return shutdown(ctx)
			},
		).WithDescription(component.Description{Type: "tracing", Details: cfg.Tracing.Endpoint})
		if err := app.RegisterComponent(c); err != nil {
			return err
		}
	}

	if cfg.Monitor.Enabled {
		m := monitor.New(cfg.Name, cfg.Monitor,
			monitor.WithGraph(g),
			monitor.WithStore(store),
			monitor.WithHealthChecker(app.Components.HealthAll),
		)
		if err := app.RegisterComponent(m); err != nil {
			return err
		}
	}
	return nil
}

// runPipeline spawns the configured graph and waits for it. The pipeline
// ends when its source is exhausted, the configured duration elapses or a
// signal cancels ctx.
func runPipeline(ctx context.Context, app *bootstrap.App[*Config], g *graph.Graph, store *telemetry.Store) error {
	cfg := app.Cfg
	if cfg.Pipeline.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Pipeline.Duration)
		defer cancel()
	}

	metrics, err := observability.NewNodeMetrics(observability.Meter(serviceName))
	if err != nil {
		return err
	}
	reporter := telemetry.Multi(
		telemetry.NewLogReporter(app.Logger.WithComponent("telemetry")),
		telemetry.NewMetricsReporter(metrics),
		store,
	)

	policy, err := cfg.Runtime.Policy()
	if err != nil {
		return err
	}
	if allowed, err := sysctl.AllowedCPUs(); err == nil {
		if err := cfg.Runtime.CheckCPUs(allowed); err != nil {
			app.Logger.Warn("cpu assignment outside the allowed set", logger.ErrorFields("cpu_check", err))
		}
	}
	w := wiring{
		runtime: cfg.Runtime,
		policy:  policy,
		log:     app.Logger.WithNode("printer"),
		extra: []node.Option{
			node.WithReporter(reporter),
			node.WithMetrics(metrics),
			node.WithTracer(observability.Tracer(serviceName)),
			node.WithLogger(app.Logger.WithComponent("node")),
		},
	}

	app.Logger.Info("spawning graph", logger.Fields(
		"graph", cfg.Pipeline.Graph,
		"items", cfg.Pipeline.Items,
		logger.FieldCapacity, cfg.Runtime.QueueCapacity,
		logger.FieldPolicy, policy.String(),
	))
	if err := buildGraph(ctx, g, cfg.Pipeline, w); err != nil {
		// Nodes spawned before the failure drain once their neighbors close.
		return errors.Join(err, g.Wait())
	}
	return g.Wait()
}
