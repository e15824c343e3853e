package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-klines/internal/config"
	"github.com/rxtech-lab/argo-klines/internal/logger"
	"github.com/rxtech-lab/argo-klines/internal/version"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata"
	"github.com/urfave/cli/v3"
)

// app bundles what every subcommand needs.
type app struct {
	config *config.Config
	logger *logger.Logger
	client *marketdata.Client
}

// newApp loads the configuration named by the root flags and opens the market data client.
func newApp(cmd *cli.Command) (*app, error) {
	root := cmd.Root()

	cfg, err := config.Load(root.String("config"))
	if err != nil {
		return nil, err
	}

	if level := root.String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	if store := root.String("store"); store != "" {
		cfg.Data.Store = marketdata.StoreType(store)
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	client, err := marketdata.NewClient(cfg.ToClientConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create market data client: %w", err)
	}

	return &app{config: cfg, logger: log, client: client}, nil
}

func (a *app) Close() {
	_ = a.client.Close()
	_ = a.logger.Sync()
}

// withApp adapts an action taking an app to a cli action.
func withApp(action func(ctx context.Context, cmd *cli.Command, a *app) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return action(ctx, cmd, a)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "klines",
		Usage:   "Incrementally sync Binance klines into CSV files and DuckDB",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration `FILE`",
				Sources: cli.EnvVars("KLINES_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error), overrides the configuration",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: fmt.Sprintf("Store to sync into and query (%s, %s), overrides the configuration", marketdata.StoreCSV, marketdata.StoreDuckDB),
			},
		},
		Commands: []*cli.Command{
			syncCommand(),
			publishCommand(),
			fillCommand(),
			queryCommand(),
			topCommand(),
			intervalsCommand(),
			schemaCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
