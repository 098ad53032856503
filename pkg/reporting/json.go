package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ducminhle1904/ict-trading-agent/internal/backtest"
)

// DefaultJSONFormatter implements JSON output functionality
type DefaultJSONFormatter struct{}

// NewDefaultJSONFormatter creates a new JSON formatter
func NewDefaultJSONFormatter() *DefaultJSONFormatter {
	return &DefaultJSONFormatter{}
}

// Format encodes v as indented JSON
func (f *DefaultJSONFormatter) Format(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Print writes v as indented JSON to w
func (f *DefaultJSONFormatter) Print(w io.Writer, v interface{}) error {
	data, err := f.Format(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteResultsJSON writes the full results, including the report, to path
func (f *DefaultJSONFormatter) WriteResultsJSON(results *backtest.BacktestResults, path string) error {
	return WriteJSON(results, path)
}

// WriteJSON writes v as indented JSON to path, creating the directory
func WriteJSON(v interface{}, path string) error {
	data, err := NewDefaultJSONFormatter().Format(v)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0644)
}
