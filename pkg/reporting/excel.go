package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ducminhle1904/ict-trading-agent/internal/backtest"
	"github.com/ducminhle1904/ict-trading-agent/internal/performance"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names
const (
	SummarySheet  = "Summary"
	TradesSheet   = "Trades"
	PatternsSheet = "Patterns"
	MonthlySheet  = "Monthly"
	EquitySheet   = "Equity"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteTradesXLSX writes a workbook with summary, trades, pattern, monthly and equity sheets
func (r *DefaultExcelReporter) WriteTradesXLSX(results *backtest.BacktestResults, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), SummarySheet); err != nil {
		return err
	}
	for _, sheet := range []string{TradesSheet, PatternsSheet, MonthlySheet, EquitySheet} {
		if _, err := fx.NewSheet(sheet); err != nil {
			return err
		}
	}

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	writers := []func(*excelize.File, *backtest.BacktestResults, ExcelStyles) error{
		r.writeSummarySheet,
		r.writeTradesSheet,
		r.writePatternsSheet,
		r.writeMonthlySheet,
		r.writeEquitySheet,
	}
	for _, write := range writers {
		if err := write(fx, results, styles); err != nil {
			return err
		}
	}

	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	lightBorder := []excelize.Border{
		{Type: "left", Color: "E0E0E0", Style: 1},
		{Type: "right", Color: "E0E0E0", Style: 1},
		{Type: "bottom", Color: "E0E0E0", Style: 1},
	}

	// Header style - Dark blue background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	styles.TitleStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   14,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"4472C4"},
			Pattern: 1,
		},
	})
	if err != nil {
		return styles, err
	}

	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    lightBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.RedCurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Font:      &excelize.Font{Color: "FF0000"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    lightBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.GreenCurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Font:      &excelize.Font{Color: "008000"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    lightBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    lightBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.NumberStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    4,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    lightBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{Border: lightBorder})
	if err != nil {
		return styles, err
	}

	return styles, nil
}

// writeHeader writes headers on the given row and sets column widths
func writeHeader(fx *excelize.File, sheet string, row int, headers []string, widths []float64, style int) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, style)
		if i < len(widths) {
			col, _ := excelize.ColumnNumberToName(i + 1)
			fx.SetColWidth(sheet, col, col, widths[i])
		}
	}
}

// writeRow writes values on row, styling each cell with the matching style
func writeRow(fx *excelize.File, sheet string, row int, values []interface{}, cellStyles []int) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		fx.SetCellValue(sheet, cell, v)
		if i < len(cellStyles) {
			fx.SetCellStyle(sheet, cell, cell, cellStyles[i])
		}
	}
}

func pnlStyle(styles ExcelStyles, pnl float64) int {
	if pnl > 0 {
		return styles.GreenCurrencyStyle
	}
	if pnl < 0 {
		return styles.RedCurrencyStyle
	}
	return styles.CurrencyStyle
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, results *backtest.BacktestResults, styles ExcelStyles) error {
	sheet := SummarySheet
	rep := results.Report
	s := rep.Summary

	fx.SetColWidth(sheet, "A", "A", 26)
	fx.SetColWidth(sheet, "B", "B", 20)
	fx.SetCellValue(sheet, "A1", fmt.Sprintf("ICT Backtest Report - %s", results.Symbol))
	fx.MergeCell(sheet, "A1", "B1")
	fx.SetCellStyle(sheet, "A1", "B1", styles.TitleStyle)

	type metric struct {
		name  string
		value interface{}
		style int
	}
	metrics := []metric{
		{"Initial Capital", results.InitialCapital, styles.CurrencyStyle},
		{"Final Capital", results.FinalCapital, styles.CurrencyStyle},
		{"Total Return", results.TotalReturn(), styles.PercentStyle},
		{"Annualized Return", rep.Risk.AnnualReturn, styles.PercentStyle},
		{"Total Trades", s.TotalTrades, styles.BaseStyle},
		{"Winning Trades", s.WinningTrades, styles.BaseStyle},
		{"Losing Trades", s.LosingTrades, styles.BaseStyle},
		{"Win Rate", s.WinRate, styles.PercentStyle},
		{"Total PnL", s.TotalPnL, pnlStyle(styles, s.TotalPnL)},
		{"Average PnL", s.AvgPnL, pnlStyle(styles, s.AvgPnL)},
		{"Gross Profit", s.GrossProfit, styles.CurrencyStyle},
		{"Gross Loss", s.GrossLoss, styles.CurrencyStyle},
		{"Profit Factor", s.ProfitFactor, styles.NumberStyle},
		{"Average Win", s.AvgWin, styles.CurrencyStyle},
		{"Average Loss", s.AvgLoss, styles.CurrencyStyle},
		{"Expectancy", s.Expectancy, pnlStyle(styles, s.Expectancy)},
		{"Max Win Streak", rep.Streaks.MaxWinStreak, styles.BaseStyle},
		{"Max Loss Streak", rep.Streaks.MaxLossStreak, styles.BaseStyle},
		{"Max Drawdown", rep.Drawdown.MaxDrawdown, styles.PercentStyle},
		{"Max Drawdown Duration (bars)", rep.Drawdown.MaxDrawdownDuration, styles.BaseStyle},
		{"Sharpe Ratio", rep.Risk.SharpeRatio, styles.NumberStyle},
		{"Sortino Ratio", rep.Risk.SortinoRatio, styles.NumberStyle},
		{"Calmar Ratio", rep.Risk.CalmarRatio, styles.NumberStyle},
		{"Volatility", rep.Risk.Volatility, styles.PercentStyle},
		{"Value at Risk", rep.Risk.ValueAtRisk, styles.PercentStyle},
		{"Conditional VaR", rep.Risk.ConditionalVaR, styles.PercentStyle},
	}

	writeHeader(fx, sheet, 3, []string{"Metric", "Value"}, nil, styles.HeaderStyle)
	for i, m := range metrics {
		writeRow(fx, sheet, i+4, []interface{}{m.name, m.value}, []int{styles.BaseStyle, m.style})
	}
	return nil
}

func (r *DefaultExcelReporter) writeTradesSheet(fx *excelize.File, results *backtest.BacktestResults, styles ExcelStyles) error {
	sheet := TradesSheet
	headers := []string{"#", "Entry Time", "Exit Time", "Side", "Pattern", "Entry Price", "Exit Price", "Quantity", "Commission", "PnL", "Exit Reason"}
	widths := []float64{6, 18, 18, 8, 16, 12, 12, 10, 12, 14, 16}
	writeHeader(fx, sheet, 1, headers, widths, styles.HeaderStyle)

	for i, t := range results.Trades {
		row := i + 2
		writeRow(fx, sheet, row, []interface{}{
			i + 1,
			t.EntryTime.Format(timeLayout),
			t.ExitTime.Format(timeLayout),
			string(t.Side),
			t.Pattern,
			t.EntryPrice,
			t.ExitPrice,
			t.Quantity,
			t.Commission,
			t.PnL,
			string(t.ExitReason),
		}, []int{
			styles.BaseStyle, styles.BaseStyle, styles.BaseStyle, styles.BaseStyle, styles.BaseStyle,
			styles.NumberStyle, styles.NumberStyle, styles.BaseStyle, styles.CurrencyStyle,
			pnlStyle(styles, t.PnL), styles.BaseStyle,
		})
	}

	if n := len(results.Trades); n > 0 {
		if err := fx.AutoFilter(sheet, fmt.Sprintf("A1:K%d", n+1), []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func (r *DefaultExcelReporter) writePatternsSheet(fx *excelize.File, results *backtest.BacktestResults, styles ExcelStyles) error {
	sheet := PatternsSheet
	headers := []string{"Group", "Name", "Trades", "Wins", "Win Rate", "Total PnL", "Avg PnL"}
	writeHeader(fx, sheet, 1, headers, []float64{12, 18, 10, 8, 10, 14, 14}, styles.HeaderStyle)

	row := 2
	write := func(group string, stats map[string]performance.GroupStats) {
		names := make([]string, 0, len(stats))
		for name := range stats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			g := stats[name]
			writeRow(fx, sheet, row, []interface{}{group, name, g.Trades, g.Wins, g.WinRate, g.TotalPnL, g.AvgPnL},
				[]int{styles.BaseStyle, styles.BaseStyle, styles.BaseStyle, styles.BaseStyle, styles.PercentStyle,
					pnlStyle(styles, g.TotalPnL), pnlStyle(styles, g.AvgPnL)})
			row++
		}
	}

	rep := results.Report
	write("Pattern", rep.ByPattern)
	write("Direction", rep.ByDirection)
	write("Weekday", rep.ByWeekday)

	hours := make(map[string]performance.GroupStats, len(rep.ByHour))
	for h, g := range rep.ByHour {
		hours[fmt.Sprintf("%02d:00", h)] = g
	}
	write("Hour", hours)
	return nil
}

func (r *DefaultExcelReporter) writeMonthlySheet(fx *excelize.File, results *backtest.BacktestResults, styles ExcelStyles) error {
	sheet := MonthlySheet
	headers := []string{"Month", "Trades", "Wins", "Losses", "Win Rate", "Total PnL", "Avg PnL", "Best Trade", "Worst Trade"}
	writeHeader(fx, sheet, 1, headers, []float64{10, 8, 8, 8, 10, 14, 14, 14, 14}, styles.HeaderStyle)

	for i, m := range results.Report.Monthly {
		writeRow(fx, sheet, i+2, []interface{}{
			m.Month, m.Trades, m.WinningTrades, m.LosingTrades, m.WinRate, m.TotalPnL, m.AvgPnL, m.BestTrade, m.WorstTrade,
		}, []int{
			styles.BaseStyle, styles.BaseStyle, styles.BaseStyle, styles.BaseStyle, styles.PercentStyle,
			pnlStyle(styles, m.TotalPnL), pnlStyle(styles, m.AvgPnL), styles.CurrencyStyle, styles.CurrencyStyle,
		})
	}
	return nil
}

func (r *DefaultExcelReporter) writeEquitySheet(fx *excelize.File, results *backtest.BacktestResults, styles ExcelStyles) error {
	sheet := EquitySheet
	writeHeader(fx, sheet, 1, []string{"Timestamp", "Cash", "Positions Value", "Equity"}, []float64{18, 14, 16, 14}, styles.HeaderStyle)

	for i, e := range results.EquityCurve {
		writeRow(fx, sheet, i+2, []interface{}{e.Timestamp.Format(timeLayout), e.Cash, e.PositionsValue, e.Equity},
			[]int{styles.BaseStyle, styles.CurrencyStyle, styles.CurrencyStyle, styles.CurrencyStyle})
	}
	return nil
}
