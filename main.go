package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marianogappa/candle-feeds/candles"
	"github.com/marianogappa/candle-feeds/candles/feed"
)

var (
	flagInterval    string
	flagMode        string
	flagCapacity    int
	flagStart       int
	flagEnd         int
	flagLimit       int
	flagMetricsAddr string
	flagVerbose     bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "candle-feeds",
		Short:         "Live OHLCV candlestick feeds from crypto exchanges",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagInterval, "interval", "1m", "candle interval, e.g. 1m, 1h, 1d")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	root.AddCommand(listCmd(), fetchCmd(), tailCmd())
	return root
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List supported exchanges",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range candles.ListExchanges() {
				fmt.Println(name)
			}
		},
	}
}

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch EXCHANGE PAIR",
		Short: "One-shot candle fetch, printed as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := candles.NewFeed(args[0], args[1], flagInterval, feed.WithLogger(newLogger()))
			if err != nil {
				return err
			}
			cs, err := f.Fetch(cmd.Context(), flagStart, flagEnd, flagLimit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cs)
		},
	}
	cmd.Flags().IntVar(&flagStart, "start", 0, "start time as a UNIX timestamp; 0 derives it from end and limit")
	cmd.Flags().IntVar(&flagEnd, "end", 0, "end time as a UNIX timestamp; 0 means now")
	cmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum number of candles; 0 means 500")
	return cmd
}

func tailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail EXCHANGE:PAIR [EXCHANGE:PAIR...]",
		Short: "Run live feeds and print the latest candle of each as it updates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			feeds := make([]*feed.Feed, 0, len(args))
			for _, arg := range args {
				parts := strings.SplitN(arg, ":", 2)
				if len(parts) != 2 {
					return fmt.Errorf("argument %q is not in EXCHANGE:PAIR form", arg)
				}
				f, err := candles.NewFeed(parts[0], parts[1], flagInterval,
					feed.WithCapacity(flagCapacity),
					feed.WithLogger(logger),
				)
				if err != nil {
					return err
				}
				feeds = append(feeds, f)
			}

			g, ctx := errgroup.WithContext(ctx)
			if flagMetricsAddr != "" {
				g.Go(func() error { return serveMetrics(ctx, flagMetricsAddr) })
			}
			for _, f := range feeds {
				f := f
				g.Go(func() error { return tailFeed(ctx, f, logger) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&flagMode, "mode", string(feed.ModeAuto), "collection mode: auto, streaming or polling")
	cmd.Flags().IntVar(&flagCapacity, "capacity", feed.DefaultCapacity, "number of candles each feed retains")
	cmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9091")
	return cmd
}

func tailFeed(ctx context.Context, f *feed.Feed, logger zerolog.Logger) error {
	if err := f.Start(feed.Mode(flagMode)); err != nil {
		return err
	}
	defer f.Stop()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	var lastPrinted int
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snapshot := f.Snapshot()
			if len(snapshot) == 0 {
				continue
			}
			last := snapshot[len(snapshot)-1]
			if last.OpenTime == lastPrinted {
				continue
			}
			lastPrinted = last.OpenTime
			logger.Info().
				Str("exchange", f.Exchange()).
				Str("pair", f.Pair().String()).
				Int("openTime", last.OpenTime).
				Float64("open", float64(last.OpenPrice)).
				Float64("high", float64(last.HighestPrice)).
				Float64("low", float64(last.LowestPrice)).
				Float64("close", float64(last.ClosePrice)).
				Float64("volume", float64(last.Volume)).
				Bool("ready", f.Ready()).
				Msg("candle")
		}
	}
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}
