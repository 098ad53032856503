package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/cmd/common"
	"github.com/ducminhle1904/ict-trading-agent/internal/agent"
	"github.com/ducminhle1904/ict-trading-agent/internal/risk"
	"github.com/ducminhle1904/ict-trading-agent/pkg/data"
	"github.com/ducminhle1904/ict-trading-agent/pkg/reporting"
)

const appName = "ict-scan"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := common.RegisterCommonFlags(fs)
	period := fs.String("period", "30d", "Trailing window to analyze, e.g. 7d, 30d, 6mo")
	asJSON := fs.Bool("json", false, "Print the analysis as JSON")
	usage := common.NewUsageFormatter(appName, "Analyze the current ICT market structure and signals").
		AddExample(appName+" --symbol NQ=F --interval 1h --period 30d", "Scan the last 30 days of hourly NQ bars").
		AddExample(appName+" --source bybit --symbol BTCUSDT --interval 15m --period 7d --json", "Scan Bybit klines as JSON")

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

	symbol, interval := cfg.Trading.Symbol, cfg.Trading.Timeframe
	provider := common.NewProvider(cfg, log)
	bars, err := data.FetchTrailing(ctx, provider, symbol, *period, interval, time.Now())
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch bars")
		return 1
	}
	if len(bars) == 0 {
		fmt.Fprintf(stderr, "❌ No data available for %s %s\n", symbol, interval)
		return 1
	}

	analysis := agent.New(cfg.AgentConfig(), log).Analyze(bars)
	plans, err := risk.NewManager(cfg.RiskLimits(), log).PlanTrades(bars, analysis.Signals, cfg.Backtesting.InitialCapital)
	if err != nil {
		log.Warn().Err(err).Int("bars", len(bars)).Msg("No ATR trade plans")
	}

	if *asJSON {
		out := scanOutput{Analysis: analysis, TradePlans: plans}
		if err := reporting.NewDefaultJSONFormatter().Print(stdout, out); err != nil {
			log.Error().Err(err).Msg("Failed to encode analysis")
			return 1
		}
		return 0
	}
	console := reporting.NewDefaultConsoleReporter(stdout)
	console.OutputAnalysis(symbol, analysis)
	console.OutputTradePlans(plans)
	return 0
}

// scanOutput is the JSON document: the analysis fields plus trade_plans
type scanOutput struct {
	agent.Analysis
	TradePlans []risk.TradePlan `json:"trade_plans"`
}
