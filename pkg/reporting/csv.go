package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ducminhle1904/ict-trading-agent/internal/backtest"
)

const timeLayout = "2006-01-02 15:04:05"

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteTradesCSV writes one row per closed trade followed by a summary row.
// A path ending in .xlsx is delegated to the Excel writer.
func (r *DefaultCSVReporter) WriteTradesCSV(results *backtest.BacktestResults, path string) error {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return NewDefaultExcelReporter().WriteTradesXLSX(results, path)
	}

	headers := []string{
		"Entry_Time",
		"Exit_Time",
		"Side",
		"Pattern",
		"Entry_Price",
		"Exit_Price",
		"Quantity",
		"Commission_$",
		"Trade_PnL_$",
		"Return_%",
		"Exit_Reason",
		"Win_Loss",
	}

	rows := make([][]string, 0, len(results.Trades)+1)
	for _, t := range results.Trades {
		winLoss := "W"
		if t.PnL <= 0 {
			winLoss = "L"
		}
		ret := 0.0
		if notional := t.EntryPrice * float64(t.Quantity); notional > 0 {
			ret = t.PnL / notional * 100
		}
		rows = append(rows, []string{
			t.EntryTime.Format(timeLayout),
			t.ExitTime.Format(timeLayout),
			string(t.Side),
			t.Pattern,
			fmt.Sprintf("%.4f", t.EntryPrice),
			fmt.Sprintf("%.4f", t.ExitPrice),
			strconv.Itoa(t.Quantity),
			fmt.Sprintf("%.2f", t.Commission),
			fmt.Sprintf("%.2f", t.PnL),
			fmt.Sprintf("%.2f", ret),
			string(t.ExitReason),
			winLoss,
		})
	}

	s := results.Report.Summary
	summary := make([]string, len(headers))
	summary[len(headers)-1] = fmt.Sprintf("SUMMARY: total_pnl=$%.2f; win_rate=%.2f%%; profit_factor=%.2f; total_trades=%d",
		s.TotalPnL, s.WinRate*100, s.ProfitFactor, s.TotalTrades)
	rows = append(rows, summary)

	return writeCSV(path, headers, rows)
}

// WriteEquityCSV writes the equity curve
func (r *DefaultCSVReporter) WriteEquityCSV(results *backtest.BacktestResults, path string) error {
	headers := []string{"Timestamp", "Cash", "Positions_Value", "Equity"}
	rows := make([][]string, 0, len(results.EquityCurve))
	for _, e := range results.EquityCurve {
		rows = append(rows, []string{
			e.Timestamp.Format(timeLayout),
			fmt.Sprintf("%.2f", e.Cash),
			fmt.Sprintf("%.2f", e.PositionsValue),
			fmt.Sprintf("%.2f", e.Equity),
		})
	}
	return writeCSV(path, headers, rows)
}

func writeCSV(path string, headers []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}
