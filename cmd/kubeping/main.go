// Command kubeping runs the discovery agent: it queries the Kubernetes API
// for the pods of a namespace, turns them into peer endpoints and hands a
// discovery request for each to the dispatcher, once per interval.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kbukum/kubeping/bootstrap"
	"github.com/kbukum/kubeping/config"
	"github.com/kbukum/kubeping/discovery"
	"github.com/kbukum/kubeping/logger"
	"github.com/kbukum/kubeping/observability"
	"github.com/kbukum/kubeping/server"
	"github.com/kbukum/kubeping/version"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "kubeping: %v\n", err)
		os.Exit(1)
	}
}

// run parses flags, loads the configuration and runs the agent until a
// signal arrives, or for a single round with -once.
func run(ctx context.Context, args []string, stdout io.Writer, lookup func(string) (string, bool)) error {
	fs := flag.NewFlagSet("kubeping", flag.ContinueOnError)
	var (
		configFile  = fs.String("config", "", "Path to config.yml (default: search standard locations)")
		envFile     = fs.String("env-file", "", "Path to a .env file")
		once        = fs.Bool("once", false, "Run a single discovery round, print it as JSON and exit")
		showVersion = fs.Bool("version", false, "Print version information and exit")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		info := version.Get()
		fmt.Fprintf(stdout, "kubeping %s (%s, %s)\n", version.Short(), info.Platform, info.GoVersion)
		return nil
	}

	opts := []config.LoaderOption{config.WithLookup(lookup)}
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}
	cfg, err := config.LoadKubePingConfig(opts...)
	if err != nil {
		return err
	}
	if *once {
		cfg.Discovery.Interval = 0
		cfg.Admin.Enabled = false
	}
	cfg.Kubernetes.DumpOut = os.Stderr

	app, err := bootstrap.NewApp(cfg, bootstrap.WithSummaryWriter(os.Stderr))
	if err != nil {
		return err
	}
	logger.SeedComponents(app.Logger, cfg.Logging.Components)

	for _, msg := range config.DeprecationWarnings(lookup) {
		app.Logger.Warn(msg)
	}
	app.Logger.Debug("configuration loaded", logger.Fields("config", cfg.String()))

	disc, err := registerComponents(app)
	if err != nil {
		return err
	}
	app.OnStart(tokenCheck(cfg.Kubernetes.TokenFile, cfg.Discovery.Namespace, time.Now, app.Logger))
	app.OnReady(readyReport(disc, app.Logger))
	app.OnStop(finalRoundReport(disc, app.Logger))

	if !*once {
		return app.Run(ctx)
	}
	return app.RunTask(ctx, func(ctx context.Context) error {
		round, ok := disc.LastRound()
		if !ok {
			round = disc.RunRound(ctx)
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(round); err != nil {
			return err
		}
		if round.Failed() {
			return round.Failure
		}
		return nil
	})
}

// registerComponents wires telemetry, discovery and the admin server into
// the app in start order.
func registerComponents(app *bootstrap.App[*config.KubePingConfig]) (*discovery.Component, error) {
	cfg := app.Cfg

	telemetry := observability.NewTelemetry(cfg.Telemetry, app.Name, app.Version, cfg.Environment, logger.Get(logger.ComponentTelemetry))
	if err := app.RegisterComponent(telemetry); err != nil {
		return nil, err
	}

	metrics, err := observability.NewMetrics(observability.Meter(config.ServiceName))
	if err != nil {
		return nil, fmt.Errorf("round metrics: %w", err)
	}
	discLog := logger.Get(logger.ComponentDiscovery)
	disc := discovery.NewComponent(cfg.Discovery, cfg.Kubernetes, discovery.NewLogDispatcher(discLog), discLog,
		discovery.WithRoundMetrics(metrics))
	if err := app.RegisterComponent(disc); err != nil {
		return nil, err
	}

	if !cfg.Admin.Enabled {
		return disc, nil
	}
	srv := server.New(cfg.Admin, logger.Get(logger.ComponentAdmin))
	srv.ApplyMiddleware()
	srv.RegisterRoutes(server.Routes{
		ServiceName: app.Name,
		Version:     app.Version,
		Health:      app.Components.HealthAll,
		Pods:        disc,
		Rounds:      disc,
	})
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return nil, err
	}
	return disc, nil
}
