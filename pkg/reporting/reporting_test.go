package reporting

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/internal/agent"
	"github.com/ducminhle1904/ict-trading-agent/internal/backtest"
	"github.com/ducminhle1904/ict-trading-agent/internal/performance"
	"github.com/ducminhle1904/ict-trading-agent/internal/risk"
	"github.com/ducminhle1904/ict-trading-agent/internal/signals"
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleResults() *backtest.BacktestResults {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	trades := []types.Trade{
		{
			Symbol: "NQ=F", EntryTime: start, ExitTime: start.Add(2 * time.Hour),
			EntryPrice: 100, ExitPrice: 104, Side: types.Long, Quantity: 10,
			PnL: 38, Commission: 2, ExitReason: types.ExitTakeProfit, Pattern: "Fair Value Gap",
		},
		{
			Symbol: "NQ=F", EntryTime: start.Add(3 * time.Hour), ExitTime: start.Add(5 * time.Hour),
			EntryPrice: 105, ExitPrice: 107, Side: types.Short, Quantity: 5,
			PnL: -12, Commission: 2, ExitReason: types.ExitStopLoss, Pattern: "Order Block",
		},
	}
	curve := make([]types.EquitySample, 6)
	equity := 10000.0
	for i := range curve {
		equity += float64(i)
		curve[i] = types.EquitySample{Timestamp: start.Add(time.Duration(i) * time.Hour), Cash: equity, Equity: equity}
	}

	return &backtest.BacktestResults{
		Symbol:         "NQ=F",
		StartTime:      start,
		EndTime:        curve[len(curve)-1].Timestamp,
		InitialCapital: 10000,
		FinalCapital:   10026,
		Trades:         trades,
		EquityCurve:    curve,
		Report:         performance.Generate(trades, curve, 10000, performance.DefaultOptions()),
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

// TestWriteTradesCSV tests trade rows and the trailing summary row
func TestWriteTradesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trades.csv")
	require.NoError(t, NewDefaultCSVReporter().WriteTradesCSV(sampleResults(), path))

	rows := readCSV(t, path)
	require.Len(t, rows, 4)
	assert.Equal(t, "Entry_Time", rows[0][0])
	assert.Equal(t, "2024-03-01 09:00:00", rows[1][0])
	assert.Equal(t, "LONG", rows[1][2])
	assert.Equal(t, "Fair Value Gap", rows[1][3])
	assert.Equal(t, "38.00", rows[1][8])
	assert.Equal(t, "W", rows[1][11])
	assert.Equal(t, "L", rows[2][11])
	assert.Contains(t, rows[3][11], "total_trades=2")
}

// TestWriteEquityCSV tests one row per equity sample
func TestWriteEquityCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equity.csv")
	require.NoError(t, NewDefaultCSVReporter().WriteEquityCSV(sampleResults(), path))

	rows := readCSV(t, path)
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"Timestamp", "Cash", "Positions_Value", "Equity"}, rows[0])
	assert.Equal(t, "10000.00", rows[1][3])
}

// TestWriteResultsJSON tests that the written file decodes back into results
func TestWriteResultsJSON(t *testing.T) {
	results := sampleResults()
	path := filepath.Join(t.TempDir(), "nested", "results.json")
	require.NoError(t, NewDefaultJSONFormatter().WriteResultsJSON(results, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded backtest.BacktestResults
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, results.Symbol, decoded.Symbol)
	assert.Len(t, decoded.Trades, 2)
	assert.Equal(t, results.Report.Summary.TotalTrades, decoded.Report.Summary.TotalTrades)
	assert.InDelta(t, results.Report.Summary.ProfitFactor, decoded.Report.Summary.ProfitFactor, 1e-9)
}

// TestWriteTradesXLSX tests the workbook sheets and trade cells
func TestWriteTradesXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.xlsx")
	require.NoError(t, NewDefaultExcelReporter().WriteTradesXLSX(sampleResults(), path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.Equal(t, []string{SummarySheet, TradesSheet, PatternsSheet, MonthlySheet, EquitySheet}, fx.GetSheetList())

	rows, err := fx.GetRows(TradesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Contains(t, rows[1], "Fair Value Gap")
	assert.Contains(t, rows[2], "Order Block")
}

// TestWriteTradesCSV_DelegatesXLSX tests that an .xlsx path produces a workbook
func TestWriteTradesCSV_DelegatesXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.xlsx")
	require.NoError(t, NewDefaultCSVReporter().WriteTradesCSV(sampleResults(), path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()
	assert.Contains(t, fx.GetSheetList(), TradesSheet)
}

// TestOutputResults tests the console summary and tables
func TestOutputResults(t *testing.T) {
	var buf bytes.Buffer
	NewDefaultConsoleReporter(&buf).OutputResults(sampleResults())

	out := buf.String()
	assert.Contains(t, out, "BACKTEST RESULTS NQ=F")
	assert.Contains(t, out, "Total Trades:       2")
	assert.Contains(t, out, "PATTERN PERFORMANCE")
	assert.Contains(t, out, "Order Block")
	assert.Contains(t, out, "LAST 2 TRADES")
}

// TestOutputAnalysis tests the signal table and the empty case
func TestOutputAnalysis(t *testing.T) {
	var buf bytes.Buffer
	console := NewDefaultConsoleReporter(&buf)

	console.OutputAnalysis("ES=F", agent.Analysis{BarsAnalyzed: 50})
	assert.Contains(t, buf.String(), "ICT ANALYSIS ES=F")
	assert.Contains(t, buf.String(), "No signals")

	buf.Reset()
	console.OutputAnalysis("ES=F", agent.Analysis{
		BarsAnalyzed: 50,
		Signals: []signals.Signal{{
			Direction: types.Bullish, Entry: 101, StopLoss: 99, TakeProfit: 105, Strength: 0.8, Label: "Fair Value Gap",
		}},
	})
	assert.Contains(t, buf.String(), "SIGNALS")
	assert.Contains(t, buf.String(), "105.00")
}

// TestOutputTradePlans tests the plan table and the risk check column
func TestOutputTradePlans(t *testing.T) {
	var buf bytes.Buffer
	console := NewDefaultConsoleReporter(&buf)

	console.OutputTradePlans(nil)
	assert.Empty(t, buf.String())

	console.OutputTradePlans([]risk.TradePlan{
		{Pattern: "Fair Value Gap", Direction: types.Bullish, Entry: 100, ATR: 2, StopLoss: 97, TakeProfit: 106, Quantity: 30, Valid: true, Reason: risk.ReasonValidated},
		{Pattern: "Order Block", Direction: types.Bearish, Entry: 100, ATR: 2, StopLoss: 104, TakeProfit: 92, Quantity: 0, Reason: risk.ReasonInsufficientCapital},
	})
	out := buf.String()
	assert.Contains(t, out, "TRADE PLANS")
	assert.Contains(t, out, "106.00")
	assert.Contains(t, out, risk.ReasonInsufficientCapital)
}

// TestGetDefaultOutputDir tests path sanitization
func TestGetDefaultOutputDir(t *testing.T) {
	p := NewDefaultPathManager("")
	assert.Equal(t, filepath.Join("results", "NQ_F_1h"), p.GetDefaultOutputDir("nq=f", "1H"))
	assert.Equal(t, filepath.Join("results", "BTC_USDT_15m"), p.GetDefaultOutputDir("btc/usdt", "15m"))
	assert.Equal(t, filepath.Join("results", "UNKNOWN_unknown"), p.GetDefaultOutputDir(" ", ""))

	custom := NewDefaultPathManager("/tmp/out")
	assert.Equal(t, filepath.Join("/tmp/out", "ES_F_4h"), custom.GetDefaultOutputDir("ES=F", "4h"))
}

// TestReportingManager_AllFormats tests that every format writes its files
func TestReportingManager_AllFormats(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer
	m := NewReportingManager(ReportingConfig{
		OutputDirectory: root,
		Formats:         []string{FormatConsole, FormatCSV, FormatJSON, FormatExcel},
	}, &buf)

	written, err := m.ReportResults(sampleResults(), "NQ=F", "1h")
	require.NoError(t, err)

	dir := filepath.Join(root, "NQ_F_1h")
	assert.Equal(t, []string{
		filepath.Join(dir, "trades.csv"),
		filepath.Join(dir, "equity.csv"),
		filepath.Join(dir, "results.json"),
		filepath.Join(dir, "trades.xlsx"),
	}, written)
	for _, path := range written {
		assert.FileExists(t, path)
	}
	assert.Contains(t, buf.String(), "BACKTEST RESULTS")
}

// TestReportingManager_Errors tests nil results and unknown formats
func TestReportingManager_Errors(t *testing.T) {
	var buf bytes.Buffer
	m := NewReportingManager(ReportingConfig{OutputDirectory: t.TempDir(), Formats: []string{"pdf"}}, &buf)

	_, err := m.ReportResults(nil, "NQ=F", "1h")
	assert.Error(t, err)

	_, err = m.ReportResults(sampleResults(), "NQ=F", "1h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format pdf")

	defaulted := NewReportingManager(ReportingConfig{OutputDirectory: t.TempDir()}, &buf)
	written, err := defaulted.ReportResults(sampleResults(), "NQ=F", "1h")
	require.NoError(t, err)
	assert.Empty(t, written)
}
