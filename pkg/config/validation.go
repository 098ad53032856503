package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var validate = validator.New()

// Validate checks field constraints and the cross-field rules the struct
// tags cannot express
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describeValidation(err)
	}

	start, end, err := c.DateRange()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return fmt.Errorf("backtesting.end_date %s must be after start_date %s", c.Backtesting.EndDate, c.Backtesting.StartDate)
	}

	if c.Risk.MaxPortfolioRisk < c.Risk.RiskPerTrade {
		return fmt.Errorf("risk.max_portfolio_risk %.4f must be at least risk_per_trade %.4f", c.Risk.MaxPortfolioRisk, c.Risk.RiskPerTrade)
	}
	return nil
}

// DateRange parses the backtest dates. An empty date is returned as the zero time.
func (c *Config) DateRange() (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if c.Backtesting.StartDate != "" {
		if start, err = time.Parse(dateLayout, c.Backtesting.StartDate); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("backtesting.start_date: %w", err)
		}
	}
	if c.Backtesting.EndDate != "" {
		if end, err = time.Parse(dateLayout, c.Backtesting.EndDate); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("backtesting.end_date: %w", err)
		}
	}
	return start, end, nil
}

func describeValidation(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted as %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
