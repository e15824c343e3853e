package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-klines/internal/config"
	"github.com/rxtech-lab/argo-klines/internal/types"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata"
	"github.com/rxtech-lab/argo-klines/pkg/marketdata/gapfill"
	"github.com/urfave/cli/v3"
)

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Print stored candles on a forward-filled grid as CSV",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Symbols to query",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Kline interval",
				Value:   "1m",
			},
			&cli.TimestampFlag{
				Name:     "start",
				Usage:    "First grid point in `YYYY-MM-DD` format (or RFC3339)",
				Required: true,
				Config: cli.TimestampConfig{
					Timezone: time.UTC,
					Layouts:  []string{"2006-01-02", time.RFC3339},
				},
			},
			&cli.TimestampFlag{
				Name:     "end",
				Usage:    "Last grid point in `YYYY-MM-DD` format (or RFC3339)",
				Required: true,
				Config: cli.TimestampConfig{
					Timezone: time.UTC,
					Layouts:  []string{"2006-01-02", time.RFC3339},
				},
			},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			frame, err := a.client.Query(ctx, marketdata.QueryParams{
				Symbols:  cmd.StringSlice("symbol"),
				Interval: cmd.String("interval"),
				Start:    cmd.Timestamp("start").UTC(),
				End:      cmd.Timestamp("end").UTC(),
			})
			if err != nil {
				return err
			}

			if !frame.Complete() {
				a.logger.Warn("Some symbols have no data at the start of the range")
			}

			return gocsv.Marshal(frameRows(frame), os.Stdout)
		}),
	}
}

// frameRows flattens a frame row by row, symbols in frame order.
func frameRows(frame *gapfill.Frame) []types.Candle {
	rows := make([]types.Candle, 0, frame.Len()*len(frame.Symbols))

	for i := 0; i < frame.Len(); i++ {
		for _, symbol := range frame.Symbols {
			if cell := frame.Columns[symbol][i]; cell.IsSome() {
				rows = append(rows, cell.Unwrap())
			}
		}
	}

	return rows
}

func topCommand() *cli.Command {
	return &cli.Command{
		Name:  "top",
		Usage: "Rank symbols by traded quote volume",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "quote",
				Usage: "Quote asset",
				Value: "USDT",
			},
			&cli.IntFlag{
				Name:  "months",
				Usage: "Number of monthly klines summed per symbol",
				Value: 3,
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of symbols printed (0 prints all)",
				Value:   100,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Also write the ranking as a coin list `FILE`",
			},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			ranking, err := a.client.TopSymbols(ctx, marketdata.TopParams{
				QuoteAsset: cmd.String("quote"),
				Months:     int(cmd.Int("months")),
				Limit:      int(cmd.Int("limit")),
			})
			if err != nil {
				return err
			}

			var list strings.Builder

			for _, entry := range ranking {
				fmt.Printf("%s\t%s\n", entry.Symbol, entry.QuoteVolume.StringFixed(2))
				list.WriteString(entry.Symbol + "\n")
			}

			if output := cmd.String("output"); output != "" {
				content := fmt.Sprintf("# top %s symbols by quote volume, %s\n%s",
					cmd.String("quote"), time.Now().UTC().Format(time.DateOnly), list.String())

				if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
					return fmt.Errorf("failed to write coin list: %w", err)
				}
			}

			return nil
		}),
	}
}

func intervalsCommand() *cli.Command {
	return &cli.Command{
		Name:  "intervals",
		Usage: "List the supported kline intervals",
		Action: func(_ context.Context, _ *cli.Command) error {
			for _, info := range marketdata.GetSupportedIntervals() {
				fmt.Printf("%-4s %5d min  %s\n", info.Name, info.Minutes, info.Table)
			}

			return nil
		},
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print a JSON schema (config, sync or query)",
		ArgsUsage: "[config|sync|query]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			kind := cmd.Args().First()

			var (
				schema string
				err    error
			)

			switch kind {
			case "", "config":
				schema, err = config.Schema()
			default:
				schema, err = marketdata.GetJobConfigSchema(marketdata.JobKind(kind))
				if err == nil {
					schema, err = indent(schema)
				}
			}

			if err != nil {
				return err
			}

			fmt.Println(schema)

			return nil
		},
	}
}

func indent(schema string) (string, error) {
	var value any
	if err := json.Unmarshal([]byte(schema), &value); err != nil {
		return "", err
	}

	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}

	return string(b), nil
}
