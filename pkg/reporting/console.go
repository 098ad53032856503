package reporting

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ducminhle1904/ict-trading-agent/internal/agent"
	"github.com/ducminhle1904/ict-trading-agent/internal/backtest"
	"github.com/ducminhle1904/ict-trading-agent/internal/performance"
	"github.com/ducminhle1904/ict-trading-agent/internal/risk"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// recentTrades is how many of the latest trades the console lists
const recentTrades = 10

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct {
	out io.Writer
}

// NewDefaultConsoleReporter creates a new console reporter writing to out, stdout when nil
func NewDefaultConsoleReporter(out io.Writer) *DefaultConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &DefaultConsoleReporter{out: out}
}

// OutputResults prints backtest results to console
func (r *DefaultConsoleReporter) OutputResults(results *backtest.BacktestResults) {
	rep := results.Report
	s := rep.Summary

	fmt.Fprintln(r.out, "\n"+strings.Repeat("=", 50))
	fmt.Fprintf(r.out, "📊 BACKTEST RESULTS %s\n", results.Symbol)
	fmt.Fprintln(r.out, strings.Repeat("=", 50))

	if !results.StartTime.IsZero() {
		fmt.Fprintf(r.out, "📅 Period:             %s → %s\n", results.StartTime.Format("2006-01-02 15:04"), results.EndTime.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(r.out, "💰 Initial Capital:    $%.2f\n", results.InitialCapital)
	fmt.Fprintf(r.out, "💰 Final Capital:      $%.2f\n", results.FinalCapital)
	fmt.Fprintf(r.out, "📈 Total Return:       %.2f%%\n", results.TotalReturn()*100)
	fmt.Fprintf(r.out, "📈 Annualized Return:  %.2f%%\n", rep.Risk.AnnualReturn*100)
	fmt.Fprintf(r.out, "📉 Max Drawdown:       %.2f%%\n", rep.Drawdown.MaxDrawdown*100)
	fmt.Fprintf(r.out, "📊 Sharpe Ratio:       %.2f\n", rep.Risk.SharpeRatio)
	fmt.Fprintf(r.out, "📊 Sortino Ratio:      %.2f\n", rep.Risk.SortinoRatio)
	fmt.Fprintf(r.out, "📊 Calmar Ratio:       %.2f\n", rep.Risk.CalmarRatio)
	fmt.Fprintf(r.out, "📊 VaR (%.0f%%):          %.2f%%\n", rep.Risk.Confidence*100, rep.Risk.ValueAtRisk*100)
	fmt.Fprintf(r.out, "💹 Profit Factor:      %.2f\n", s.ProfitFactor)
	fmt.Fprintf(r.out, "🔄 Total Trades:       %d\n", s.TotalTrades)

	loseRate := 0.0
	if s.TotalTrades > 0 {
		loseRate = float64(s.LosingTrades) / float64(s.TotalTrades)
	}
	fmt.Fprintf(r.out, "✅ Winning Trades:     %d (%.1f%%)\n", s.WinningTrades, s.WinRate*100)
	fmt.Fprintf(r.out, "❌ Losing Trades:      %d (%.1f%%)\n", s.LosingTrades, loseRate*100)
	fmt.Fprintf(r.out, "🎯 Expectancy:         $%.2f\n", s.Expectancy)
	fmt.Fprintf(r.out, "🔥 Streaks:            %d wins / %d losses\n", rep.Streaks.MaxWinStreak, rep.Streaks.MaxLossStreak)

	if len(rep.ByPattern) > 0 {
		r.renderGroups("PATTERN PERFORMANCE", rep.ByPattern)
	}
	if len(rep.ByDirection) > 0 {
		r.renderGroups("DIRECTION PERFORMANCE", rep.ByDirection)
	}
	if len(results.Trades) > 0 {
		r.renderTrades(results)
	}
}

func (r *DefaultConsoleReporter) renderGroups(title string, groups map[string]performance.GroupStats) {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Name", "Trades", "Win Rate", "Total PnL", "Avg PnL"})
	for _, name := range names {
		g := groups[name]
		t.AppendRow(table.Row{
			name,
			g.Trades,
			fmt.Sprintf("%.1f%%", g.WinRate*100),
			fmt.Sprintf("$%.2f", g.TotalPnL),
			fmt.Sprintf("$%.2f", g.AvgPnL),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 16, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

func (r *DefaultConsoleReporter) renderTrades(results *backtest.BacktestResults) {
	trades := results.Trades
	if len(trades) > recentTrades {
		trades = trades[len(trades)-recentTrades:]
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(fmt.Sprintf("LAST %d TRADES", len(trades)))
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Entry", "Exit", "Side", "Pattern", "Entry Px", "Exit Px", "Qty", "PnL", "Reason"})
	for _, tr := range trades {
		t.AppendRow(table.Row{
			tr.EntryTime.Format("2006-01-02 15:04"),
			tr.ExitTime.Format("2006-01-02 15:04"),
			tr.Side,
			tr.Pattern,
			fmt.Sprintf("%.2f", tr.EntryPrice),
			fmt.Sprintf("%.2f", tr.ExitPrice),
			tr.Quantity,
			fmt.Sprintf("$%.2f", tr.PnL),
			tr.ExitReason,
		})
	}
	t.Render()
}

// OutputAnalysis prints the current market structure, patterns and signals
func (r *DefaultConsoleReporter) OutputAnalysis(symbol string, analysis agent.Analysis) {
	fmt.Fprintln(r.out, "\n"+strings.Repeat("=", 50))
	fmt.Fprintf(r.out, "🔎 ICT ANALYSIS %s\n", symbol)
	fmt.Fprintln(r.out, strings.Repeat("=", 50))
	fmt.Fprintf(r.out, "📊 Bars Analyzed:      %d\n", analysis.BarsAnalyzed)
	fmt.Fprintf(r.out, "🧭 Trend:              %s\n", analysis.Structure.Trend)
	fmt.Fprintf(r.out, "📐 Swings:             %d highs / %d lows\n", len(analysis.Structure.SwingHighs), len(analysis.Structure.SwingLows))
	fmt.Fprintf(r.out, "💥 Structure Breaks:   %d\n", len(analysis.Structure.Breaks))
	fmt.Fprintf(r.out, "🕳️  Fair Value Gaps:    %d\n", len(analysis.Gaps))
	fmt.Fprintf(r.out, "🧱 Order Blocks:       %d\n", len(analysis.OrderBlocks))
	fmt.Fprintf(r.out, "💧 Liquidity Pools:    %d\n", len(analysis.Liquidity))

	if len(analysis.Signals) == 0 {
		fmt.Fprintln(r.out, "⚠️  No signals")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("SIGNALS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Pattern", "Direction", "Entry", "Stop", "Target", "Strength"})
	for i, sig := range analysis.Signals {
		t.AppendRow(table.Row{
			i + 1,
			sig.Label,
			sig.Direction,
			fmt.Sprintf("%.2f", sig.Entry),
			fmt.Sprintf("%.2f", sig.StopLoss),
			fmt.Sprintf("%.2f", sig.TakeProfit),
			fmt.Sprintf("%.2f", sig.Strength),
		})
	}
	t.Render()
}

// OutputTradePlans prints the ATR-levelled stop, target and size for each signal
func (r *DefaultConsoleReporter) OutputTradePlans(plans []risk.TradePlan) {
	if len(plans) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("TRADE PLANS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Pattern", "Direction", "Entry", "ATR", "Stop", "Target", "Qty", "Risk Check"})
	for i, p := range plans {
		check := "✅"
		if !p.Valid {
			check = "❌ " + p.Reason
		}
		t.AppendRow(table.Row{
			i + 1,
			p.Pattern,
			p.Direction,
			fmt.Sprintf("%.2f", p.Entry),
			fmt.Sprintf("%.2f", p.ATR),
			fmt.Sprintf("%.2f", p.StopLoss),
			fmt.Sprintf("%.2f", p.TakeProfit),
			p.Quantity,
			check,
		})
	}
	t.Render()
}
