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
	"github.com/ducminhle1904/ict-trading-agent/internal/monitoring"
	"github.com/ducminhle1904/ict-trading-agent/pkg/config"
	"github.com/ducminhle1904/ict-trading-agent/pkg/data"
	"github.com/ducminhle1904/ict-trading-agent/pkg/orchestrator"
	"github.com/ducminhle1904/ict-trading-agent/pkg/reporting"
)

const appName = "ict-backtest"

type backtestFlags struct {
	common *common.CommonFlags

	start        *string
	end          *string
	period       *string
	capital      *float64
	commission   *float64
	formats      *string
	outputDir    *string
	allIntervals *bool
	workers      *int
	metrics      *string
	hold         *bool
}

func registerFlags(fs *flag.FlagSet) *backtestFlags {
	return &backtestFlags{
		common:       common.RegisterCommonFlags(fs),
		start:        fs.String("start", "", "Start date (YYYY-MM-DD), overrides backtesting.start_date"),
		end:          fs.String("end", "", "End date (YYYY-MM-DD), overrides backtesting.end_date"),
		period:       fs.String("period", "", "Trailing window ending now, e.g. 30d, 6mo, 1y; overrides the dates"),
		capital:      fs.Float64("capital", 0, "Initial capital, overrides backtesting.initial_capital"),
		commission:   fs.Float64("commission", -1, "Commission per fill, overrides backtesting.commission"),
		formats:      fs.String("formats", "", "Comma separated outputs: console,csv,json,excel"),
		outputDir:    fs.String("output", "", "Output directory, overrides reporting.output_dir"),
		allIntervals: fs.Bool("all-intervals", false, "Backtest every interval found under the data root"),
		workers:      fs.Int("workers", 0, "Parallel backtests for --all-intervals (0 = number of CPUs)"),
		metrics:      fs.String("metrics-addr", "", "Serve /metrics and /health on this address"),
		hold:         fs.Bool("hold", false, "Keep serving metrics after the run until interrupted"),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := registerFlags(fs)
	usage := common.NewUsageFormatter(appName, "Backtest ICT patterns on historical bars").
		AddExample(appName+" --symbol NQ=F --interval 1h --start 2023-01-01 --end 2023-12-31", "Backtest a date range from CSV files").
		AddExample(appName+" --source bybit --symbol BTCUSDT --interval 15m --period 90d --formats console,excel", "Backtest the last 90 days from Bybit").
		AddExample(appName+" --symbol BTCUSDT --all-intervals --formats json", "Compare every downloaded interval")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if common.CheckHelpAndVersion(fs, flags.common, usage) {
		return 0
	}

	bootstrap, err := common.BootstrapLogger(flags.common)
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 2
	}
	cfg, err := common.LoadConfig(flags.common, bootstrap)
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 1
	}
	if err := applyFlags(cfg, flags); err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 2
	}

	log, err := common.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 1
	}

	health := monitoring.NewHealthChecker()
	metricsAddr := *flags.metrics
	if metricsAddr == "" && cfg.Monitoring.Enabled {
		metricsAddr = cfg.Monitoring.Addr
	}
	if metricsAddr != "" {
		srv := common.StartMonitoring(metricsAddr, health, log)
		defer func() {
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdown)
		}()
	}

	req, err := buildRequest(cfg, flags, time.Now())
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 2
	}

	opts := orchestrator.OptionsFromConfig(cfg)
	opts.Workers = *flags.workers
	opts.Health = health
	runner := orchestrator.NewRunner(common.NewProvider(cfg, log), opts, log)
	reports := reporting.NewReportingManager(reporting.ReportingConfig{
		OutputDirectory: cfg.Reporting.OutputDir,
		Formats:         cfg.Reporting.Formats,
	}, stdout)

	var results []orchestrator.Result
	if *flags.allIntervals {
		intervals, err := orchestrator.AvailableIntervals(cfg.Data.DataRoot, cfg.Data.Exchange, req.Symbol)
		if err != nil {
			log.Error().Err(err).Msg("No intervals to backtest")
			return 1
		}
		results = runner.RunIntervals(ctx, req, intervals).Results
	} else {
		results = []orchestrator.Result{runner.RunBacktest(ctx, req)}
	}

	code := 0
	for _, res := range results {
		if !res.OK() {
			log.Error().Str("symbol", res.Symbol).Str("interval", res.Interval).Str("error", res.Error).Msg("❌ Backtest failed")
			code = 1
			continue
		}
		written, err := reports.ReportResults(res.Backtest, res.Symbol, res.Interval)
		if err != nil {
			log.Error().Err(err).Msg("Failed to write reports")
			code = 1
		}
		for _, path := range written {
			log.Info().Str("file", path).Msg("💾 Report written")
		}
	}
	if best := orchestrator.Best(results); best != nil && len(results) > 1 {
		fmt.Fprintf(stdout, "🏆 Best interval: %s (%.2f%%)\n", best.Interval, best.TotalReturn()*100)
	}

	if metricsAddr != "" && *flags.hold {
		log.Info().Msg("Holding metrics server, press Ctrl+C to exit")
		<-ctx.Done()
	}
	return code
}

// applyFlags overlays the backtest specific flags on cfg
func applyFlags(cfg *config.Config, flags *backtestFlags) error {
	if *flags.start != "" {
		cfg.Backtesting.StartDate = *flags.start
	}
	if *flags.end != "" {
		cfg.Backtesting.EndDate = *flags.end
	}
	if *flags.capital > 0 {
		cfg.Backtesting.InitialCapital = *flags.capital
	}
	if *flags.commission >= 0 {
		cfg.Backtesting.Commission = *flags.commission
	}
	if *flags.formats != "" {
		var formats []string
		for _, f := range strings.Split(*flags.formats, ",") {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				formats = append(formats, f)
			}
		}
		cfg.Reporting.Formats = formats
	}
	if *flags.outputDir != "" {
		cfg.Reporting.OutputDir = *flags.outputDir
	}
	return cfg.Validate()
}

// buildRequest derives the request from cfg, replacing the dates with a
// trailing window when --period is set
func buildRequest(cfg *config.Config, flags *backtestFlags, now time.Time) (orchestrator.Request, error) {
	req, err := orchestrator.RequestFromConfig(cfg)
	if err != nil {
		return req, err
	}
	if *flags.period != "" {
		d, ok := data.ParseTrailingPeriod(*flags.period)
		if !ok {
			return req, fmt.Errorf("invalid period %q", *flags.period)
		}
		req.End = now
		req.Start = now.Add(-d)
	}
	return req, nil
}
