package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/rxtech-lab/argo-klines/pkg/marketdata"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/syncer"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Fetch every candle newer than what is stored",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Symbols to sync. Defaults to the supported coin list",
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Kline interval",
				Value:   "1m",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Only sync the first `N` symbols of the list (0 syncs all)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Do not draw progress bars",
			},
		},
		Action: withApp(syncAction),
	}
}

func syncAction(ctx context.Context, cmd *cli.Command, a *app) error {
	symbols := a.config.Coins(cmd.StringSlice("symbol"))
	if limit := int(cmd.Int("limit")); limit > 0 && limit < len(symbols) {
		symbols = symbols[:limit]
	}

	if len(symbols) == 0 {
		return fmt.Errorf("no symbols to sync: pass --symbol or configure supported_coin_list")
	}

	if !cmd.Bool("quiet") {
		a.client.OnProgress(newProgressBars().update)
	}

	results, err := a.client.SyncAll(ctx, marketdata.SyncAllParams{
		Symbols:  symbols,
		Interval: cmd.String("interval"),
	})

	for _, result := range results {
		printResult(result)
	}

	return err
}

func printResult(result *syncer.Result) {
	if result == nil {
		return
	}

	if result.From.After(result.To) {
		fmt.Printf("%s %s: up to date\n", result.Symbol, result.Interval)

		return
	}

	fmt.Printf("%s %s: %d candles in %d batches (written %d, skipped %d) from %s to %s\n",
		result.Symbol, result.Interval, len(result.Candles), result.Batches, result.Written, result.Skipped,
		result.From.Format("2006-01-02 15:04"), result.To.Format("2006-01-02 15:04"))
}

// progressBars draws one bar per symbol.
type progressBars struct {
	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

func newProgressBars() *progressBars {
	return &progressBars{bars: make(map[string]*progressbar.ProgressBar)}
}

func (p *progressBars) update(symbol string, current float64, total float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bar, ok := p.bars[symbol]
	if !ok {
		bar = progressbar.NewOptions64(int64(total),
			progressbar.OptionSetDescription(fmt.Sprintf("Syncing %s", symbol)),
			progressbar.OptionShowCount(),
		)
		p.bars[symbol] = bar
	}

	_ = bar.Set64(int64(current))
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Append the CSV files to the DuckDB database",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Symbols to publish. Defaults to the supported coin list, or every file when it is empty",
			},
			&cli.StringSliceFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Intervals to publish. Defaults to every interval",
			},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			reports, err := a.client.PublishCSV(ctx, marketdata.PublishParams{
				Symbols:   a.config.Coins(cmd.StringSlice("symbol")),
				Intervals: cmd.StringSlice("interval"),
			})

			for _, report := range reports {
				status := "ok"
				if report.Rejected {
					status = "rejected"
				}

				fmt.Printf("%s %s -> %s: read %d, written %d (%s)\n",
					report.Symbol, report.Interval, report.Table, report.Read, report.Written, status)
			}

			return err
		}),
	}
}

func fillCommand() *cli.Command {
	return &cli.Command{
		Name:  "fill",
		Usage: "Write gap-filled copies of a directory of CSV kline files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "source",
				Usage:    "Directory of the sparse CSV files",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "dest",
				Usage:    "Directory receiving the filled files",
				Required: true,
			},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			reports, err := a.client.FillCSVDirectory(ctx, marketdata.FillParams{
				SourceDir: cmd.String("source"),
				DestDir:   cmd.String("dest"),
			})

			for _, report := range reports {
				fmt.Printf("%s %s: %d -> %d candles (written %d)\n",
					report.Symbol, report.Interval, report.Before, report.After, report.Written)
			}

			return err
		}),
	}
}
