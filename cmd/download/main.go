package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/cmd/common"
	"github.com/ducminhle1904/ict-trading-agent/internal/exchange/bybit"
	"github.com/ducminhle1904/ict-trading-agent/pkg/data"
	"github.com/rs/zerolog"
)

const (
	appName    = "ict-download"
	dateLayout = "2006-01-02"
)

// job is one symbol, interval and category to download
type job struct {
	category string
	symbol   string
	interval string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := common.RegisterCommonFlags(fs)
	symbols := fs.String("symbols", "", "Comma-separated symbols, overrides --symbol")
	intervals := fs.String("intervals", "", "Comma-separated intervals, overrides --interval")
	categories := fs.String("categories", "", "Comma-separated categories (spot, linear, inverse), default data.bybit.category")
	startDate := fs.String("start", "", "Start date (YYYY-MM-DD), default 30 days before --end")
	endDate := fs.String("end", "", "End date (YYYY-MM-DD), default today")
	testnet := fs.Bool("testnet", false, "Use the Bybit testnet")
	usage := common.NewUsageFormatter(appName, "Download Bybit klines into the CSV data layout").
		AddExample(appName+" --symbols BTCUSDT,ETHUSDT --intervals 15m,1h --start 2024-01-01", "Download two symbols at two intervals")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if common.CheckHelpAndVersion(fs, flags, usage) {
		return 0
	}

	bootstrap, err := common.BootstrapLogger(flags)
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 2
	}
	cfg, err := common.LoadConfig(flags, bootstrap)
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 1
	}
	log, err := common.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 1
	}

	start, end, err := dateRange(*startDate, *endDate, time.Now().UTC())
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 2
	}

	symList := splitList(*symbols, strings.ToUpper)
	if len(symList) == 0 {
		symList = []string{strings.ToUpper(cfg.Trading.Symbol)}
	}
	intList := splitList(*intervals, strings.TrimSpace)
	if len(intList) == 0 {
		intList = []string{cfg.Trading.Timeframe}
	}
	catList := splitList(*categories, strings.ToLower)
	if len(catList) == 0 {
		catList = []string{cfg.Data.Bybit.Category}
	}

	fmt.Fprintln(stdout, "🚀 Bybit Historical Data Downloader")
	fmt.Fprintln(stdout, "====================================")
	fmt.Fprintf(stdout, "📊 Categories: %s\n", strings.Join(catList, ", "))
	fmt.Fprintf(stdout, "🎯 Symbols: %s\n", strings.Join(symList, ", "))
	fmt.Fprintf(stdout, "⏱️  Intervals: %s\n", strings.Join(intList, ", "))
	fmt.Fprintf(stdout, "📅 Date Range: %s to %s\n", start.Format(dateLayout), end.Format(dateLayout))

	var jobs []job
	for _, cat := range catList {
		for _, sym := range symList {
			for _, ival := range intList {
				jobs = append(jobs, job{category: cat, symbol: sym, interval: ival})
			}
		}
	}

	clients := make(map[string]data.BarProvider)
	providerFor := func(category string) data.BarProvider {
		if p, ok := clients[category]; ok {
			return p
		}
		c := bybit.NewClient(bybit.Config{
			APIKey:    cfg.Data.Bybit.APIKey,
			APISecret: cfg.Data.Bybit.APISecret,
			BaseURL:   baseURL(cfg.Data.Bybit.BaseURL, *testnet),
			Testnet:   *testnet,
			Category:  category,
		}, log)
		clients[category] = c
		return c
	}

	failed := download(ctx, jobs, providerFor, cfg.Data.DataRoot, start, end, stdout, log)
	if failed > 0 {
		fmt.Fprintf(stdout, "\n⚠️  %d of %d downloads failed\n", failed, len(jobs))
		return 1
	}
	fmt.Fprintln(stdout, "\n🎉 All downloads completed!")
	return 0
}

// download fetches every job and writes it under dataRoot, returning the number of failures
func download(ctx context.Context, jobs []job, providerFor func(category string) data.BarProvider, dataRoot string, start, end time.Time, out io.Writer, log zerolog.Logger) int {
	failed := 0
	for _, j := range jobs {
		path := data.CandlesPath(dataRoot, "bybit", j.category, j.symbol, j.interval)
		fmt.Fprintf(out, "\n📊 Downloading %s %s data for %s\n", j.category, j.interval, j.symbol)

		bars, err := providerFor(j.category).FetchBars(ctx, j.symbol, start, end, j.interval)
		if err != nil {
			log.Error().Err(err).Str("symbol", j.symbol).Str("interval", j.interval).Str("category", j.category).Msg("❌ Download failed")
			failed++
			continue
		}
		if len(bars) == 0 {
			log.Warn().Str("symbol", j.symbol).Str("interval", j.interval).Str("category", j.category).Msg("No klines returned")
			failed++
			continue
		}
		if err := data.WriteCSV(path, bars); err != nil {
			log.Error().Err(err).Str("path", path).Msg("❌ Failed to save klines")
			failed++
			continue
		}

		fmt.Fprintf(out, "✅ Downloaded %d klines\n", len(bars))
		fmt.Fprintf(out, "  First: %s\n", bars[0].Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "  Last:  %s\n", bars[len(bars)-1].Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "💾 Data saved to %s\n", path)
	}
	return failed
}

// dateRange parses the optional dates; end defaults to today and start to 30 days before end
func dateRange(startDate, endDate string, now time.Time) (time.Time, time.Time, error) {
	end := now
	if endDate != "" {
		parsed, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date format: %w", err)
		}
		end = parsed.Add(24*time.Hour - time.Millisecond)
	}

	start := end.AddDate(0, 0, -30)
	if startDate != "" {
		parsed, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date format: %w", err)
		}
		start = parsed
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s must be after start date %s", end.Format(dateLayout), start.Format(dateLayout))
	}
	return start, end, nil
}

// baseURL drops the configured mainnet URL when the testnet is requested
func baseURL(configured string, testnet bool) string {
	if testnet {
		return ""
	}
	return configured
}

func splitList(s string, norm func(string) string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = norm(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
