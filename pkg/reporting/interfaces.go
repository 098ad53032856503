package reporting

import (
	"github.com/ducminhle1904/ict-trading-agent/internal/agent"
	"github.com/ducminhle1904/ict-trading-agent/internal/backtest"
)

// Output formats
const (
	FormatConsole = "console"
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatExcel   = "excel"
)

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	OutputResults(results *backtest.BacktestResults)
	OutputAnalysis(symbol string, analysis agent.Analysis)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteTradesCSV(results *backtest.BacktestResults, path string) error
	WriteEquityCSV(results *backtest.BacktestResults, path string) error
	WriteTradesXLSX(results *backtest.BacktestResults, path string) error
	WriteResultsJSON(results *backtest.BacktestResults, path string) error
}

// PathManager defines interface for output path management
type PathManager interface {
	GetDefaultOutputDir(symbol, interval string) string
	EnsureDirectoryExists(path string) error
}

// Reporter combines all reporting interfaces
type Reporter interface {
	ConsoleReporter
	FileReporter
	PathManager
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle        int
	CurrencyStyle      int
	PercentStyle       int
	NumberStyle        int
	BaseStyle          int
	RedCurrencyStyle   int
	GreenCurrencyStyle int
	TitleStyle         int
}

// ReportingConfig holds configuration for reporting
type ReportingConfig struct {
	OutputDirectory string
	Formats         []string
}
