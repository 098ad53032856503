package reporting

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/ducminhle1904/ict-trading-agent/internal/agent"
	"github.com/ducminhle1904/ict-trading-agent/internal/backtest"
	apperrors "github.com/ducminhle1904/ict-trading-agent/internal/errors"
)

// DefaultReporter implements the complete Reporter interface
type DefaultReporter struct {
	console *DefaultConsoleReporter
	csv     *DefaultCSVReporter
	excel   *DefaultExcelReporter
	json    *DefaultJSONFormatter
	paths   *DefaultPathManager
}

// NewDefaultReporter creates a new default reporter writing console output to out
// and files below root
func NewDefaultReporter(out io.Writer, root string) *DefaultReporter {
	return &DefaultReporter{
		console: NewDefaultConsoleReporter(out),
		csv:     NewDefaultCSVReporter(),
		excel:   NewDefaultExcelReporter(),
		json:    NewDefaultJSONFormatter(),
		paths:   NewDefaultPathManager(root),
	}
}

// Console output methods
func (r *DefaultReporter) OutputResults(results *backtest.BacktestResults) {
	r.console.OutputResults(results)
}

func (r *DefaultReporter) OutputAnalysis(symbol string, analysis agent.Analysis) {
	r.console.OutputAnalysis(symbol, analysis)
}

// File output methods
func (r *DefaultReporter) WriteTradesCSV(results *backtest.BacktestResults, path string) error {
	return r.csv.WriteTradesCSV(results, path)
}

func (r *DefaultReporter) WriteEquityCSV(results *backtest.BacktestResults, path string) error {
	return r.csv.WriteEquityCSV(results, path)
}

func (r *DefaultReporter) WriteTradesXLSX(results *backtest.BacktestResults, path string) error {
	return r.excel.WriteTradesXLSX(results, path)
}

func (r *DefaultReporter) WriteResultsJSON(results *backtest.BacktestResults, path string) error {
	return r.json.WriteResultsJSON(results, path)
}

// Path management methods
func (r *DefaultReporter) GetDefaultOutputDir(symbol, interval string) string {
	return r.paths.GetDefaultOutputDir(symbol, interval)
}

func (r *DefaultReporter) EnsureDirectoryExists(path string) error {
	return r.paths.EnsureDirectoryExists(path)
}

// ReportingManager provides a high-level interface for all reporting needs
type ReportingManager struct {
	reporter *DefaultReporter
	config   ReportingConfig
}

// NewReportingManager creates a new reporting manager with configuration
func NewReportingManager(config ReportingConfig, out io.Writer) *ReportingManager {
	if len(config.Formats) == 0 {
		config.Formats = []string{FormatConsole}
	}
	return &ReportingManager{
		reporter: NewDefaultReporter(out, config.OutputDirectory),
		config:   config,
	}
}

// Reporter returns the underlying reporter
func (m *ReportingManager) Reporter() *DefaultReporter {
	return m.reporter
}

// ReportResults outputs results in every configured format and returns the
// files it wrote
func (m *ReportingManager) ReportResults(results *backtest.BacktestResults, symbol, interval string) ([]string, error) {
	if results == nil {
		return nil, apperrors.New(apperrors.ErrorCategoryValidation, "reporting", "report results", "no results to report")
	}

	outputDir := m.reporter.GetDefaultOutputDir(symbol, interval)
	var written []string

	write := func(name string, fn func(*backtest.BacktestResults, string) error) error {
		path := filepath.Join(outputDir, name)
		if err := fn(results, path); err != nil {
			return apperrors.Wrap(err, apperrors.ErrorCategoryIO, "reporting", "write "+name)
		}
		written = append(written, path)
		return nil
	}

	for _, format := range m.config.Formats {
		switch strings.ToLower(format) {
		case FormatConsole:
			m.reporter.OutputResults(results)
		case FormatCSV:
			if err := write("trades.csv", m.reporter.WriteTradesCSV); err != nil {
				return written, err
			}
			if err := write("equity.csv", m.reporter.WriteEquityCSV); err != nil {
				return written, err
			}
		case FormatJSON:
			if err := write("results.json", m.reporter.WriteResultsJSON); err != nil {
				return written, err
			}
		case FormatExcel:
			if err := write("trades.xlsx", m.reporter.WriteTradesXLSX); err != nil {
				return written, err
			}
		default:
			return written, apperrors.New(apperrors.ErrorCategoryConfiguration, "reporting", "report results", "unknown output format "+format)
		}
	}

	return written, nil
}
