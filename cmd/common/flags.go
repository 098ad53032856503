package common

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ducminhle1904/ict-trading-agent/pkg/config"
)

// CommonFlags contains flags that are shared across multiple commands
type CommonFlags struct {
	// Environment and configuration
	ConfigFile *string
	EnvFile    *string
	DataRoot   *string
	Source     *string

	// Market
	Symbol   *string
	Interval *string

	// Logging
	LogLevel *string
	Verbose  *bool

	// Help and version
	Version *bool
	Help    *bool
}

// RegisterCommonFlags registers common flags on fs. Empty values leave the
// configuration untouched.
func RegisterCommonFlags(fs *flag.FlagSet) *CommonFlags {
	return &CommonFlags{
		ConfigFile: fs.String("config", config.DefaultConfigPath, "Configuration file path"),
		EnvFile:    fs.String("env", ".env", "Environment file path"),
		DataRoot:   fs.String("data-root", "", "Data root directory"),
		Source:     fs.String("source", "", "Data source: csv or bybit"),

		Symbol:   fs.String("symbol", "", "Instrument symbol, e.g. NQ=F or BTCUSDT"),
		Interval: fs.String("interval", "", "Bar interval, e.g. 15m, 1h, 4h, 1d"),

		LogLevel: fs.String("log-level", "", "Log level: debug, info, warn, error"),
		Verbose:  fs.Bool("verbose", false, "Enable debug logging"),

		Version: fs.Bool("version", false, "Show version information"),
		Help:    fs.Bool("help", false, "Show help information"),
	}
}

// Apply overlays the non-empty flag values on cfg
func (f *CommonFlags) Apply(cfg *config.Config) {
	if *f.DataRoot != "" {
		cfg.Data.DataRoot = *f.DataRoot
	}
	if *f.Source != "" {
		cfg.Data.PrimarySource = strings.ToLower(*f.Source)
	}
	if *f.Symbol != "" {
		cfg.Trading.Symbol = *f.Symbol
	}
	if *f.Interval != "" {
		cfg.Trading.Timeframe = *f.Interval
	}
	if *f.LogLevel != "" {
		cfg.Logging.Level = *f.LogLevel
	}
	if *f.Verbose {
		cfg.Logging.Level = "debug"
	}
}

// FlagValidator provides flag validation utilities
type FlagValidator struct {
	errors []string
}

// NewFlagValidator creates a new flag validator
func NewFlagValidator() *FlagValidator {
	return &FlagValidator{
		errors: make([]string, 0),
	}
}

// ValidateFloat validates a float flag value
func (v *FlagValidator) ValidateFloat(name string, value float64, min, max float64) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %.4f and %.4f, got: %.4f", name, min, max, value))
	}
	return v
}

// ValidateInt validates an int flag value
func (v *FlagValidator) ValidateInt(name string, value int, min, max int) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %d and %d, got: %d", name, min, max, value))
	}
	return v
}

// ValidateChoice validates that a string is one of the allowed choices. Empty passes.
func (v *FlagValidator) ValidateChoice(name, value string, choices []string) *FlagValidator {
	if value == "" {
		return v
	}
	for _, choice := range choices {
		if strings.EqualFold(value, choice) {
			return v
		}
	}
	v.errors = append(v.errors, fmt.Sprintf("%s must be one of [%s], got: %s", name, strings.Join(choices, ", "), value))
	return v
}

// ValidateDirectory validates that a directory exists
func (v *FlagValidator) ValidateDirectory(name, path string, required bool) *FlagValidator {
	if path == "" {
		if required {
			v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
		}
		return v
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.errors = append(v.errors, fmt.Sprintf("%s directory does not exist: %s", name, path))
	} else if err == nil && !info.IsDir() {
		v.errors = append(v.errors, fmt.Sprintf("%s is not a directory: %s", name, path))
	}
	return v
}

// AddError adds a custom validation error
func (v *FlagValidator) AddError(message string) *FlagValidator {
	v.errors = append(v.errors, message)
	return v
}

// HasErrors returns true if there are validation errors
func (v *FlagValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetError returns a formatted error message with all validation errors
func (v *FlagValidator) GetError() error {
	if len(v.errors) == 0 {
		return nil
	}

	if len(v.errors) == 1 {
		return fmt.Errorf("validation error: %s", v.errors[0])
	}

	return fmt.Errorf("validation errors:\n  - %s", strings.Join(v.errors, "\n  - "))
}

// UsageFormatter provides utilities for formatting flag usage
type UsageFormatter struct {
	AppName        string
	AppDescription string
	Examples       []UsageExample
}

// UsageExample represents a usage example
type UsageExample struct {
	Command     string
	Description string
}

// NewUsageFormatter creates a new usage formatter
func NewUsageFormatter(appName, description string) *UsageFormatter {
	return &UsageFormatter{
		AppName:        appName,
		AppDescription: description,
		Examples:       make([]UsageExample, 0),
	}
}

// AddExample adds a usage example
func (u *UsageFormatter) AddExample(command, description string) *UsageFormatter {
	u.Examples = append(u.Examples, UsageExample{
		Command:     command,
		Description: description,
	})
	return u
}

// PrintUsage prints formatted usage information for fs
func (u *UsageFormatter) PrintUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintf(out, "%s - %s\n\n", u.AppName, u.AppDescription)

	fmt.Fprintf(out, "USAGE:\n")
	fmt.Fprintf(out, "  %s [OPTIONS]\n\n", filepath.Base(os.Args[0]))

	if len(u.Examples) > 0 {
		fmt.Fprintf(out, "EXAMPLES:\n")
		for _, example := range u.Examples {
			fmt.Fprintf(out, "  # %s\n", example.Description)
			fmt.Fprintf(out, "  %s\n\n", example.Command)
		}
	}

	fmt.Fprintf(out, "OPTIONS:\n")
	fs.PrintDefaults()
}

// CheckHelpAndVersion handles --help and --version and reports whether the command should exit
func CheckHelpAndVersion(fs *flag.FlagSet, commonFlags *CommonFlags, formatter *UsageFormatter) bool {
	if *commonFlags.Version {
		PrintVersion(fs.Output(), formatter.AppName)
		return true
	}

	if *commonFlags.Help {
		formatter.PrintUsage(fs)
		return true
	}

	return false
}
