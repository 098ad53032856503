package data

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const hoursPerYear = 365 * 24

// ParseInterval converts interval strings like "5m", "1h", "1d", "1w" to a duration.
// A bare number is read as minutes.
func ParseInterval(interval string) (time.Duration, error) {
	s := strings.TrimSpace(interval)
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Minute, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid interval %q", interval)
	}

	unit := s[len(s)-1:]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid interval %q", interval)
	}

	switch unit {
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "h", "H":
		return time.Duration(n) * time.Hour, nil
	case "d", "D":
		return time.Duration(n) * 24 * time.Hour, nil
	case "w", "W":
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case "M":
		return time.Duration(n) * 30 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("invalid interval %q: unknown unit %q", interval, unit)
}

// IntervalMinutes renders an interval as its minute count, "60" for "1h".
// Unparseable input is returned unchanged.
func IntervalMinutes(interval string) string {
	d, err := ParseInterval(interval)
	if err != nil {
		return interval
	}
	return strconv.Itoa(int(d / time.Minute))
}

// BarsPerYear is the number of bars of the given interval in 365 days,
// 8760 for hourly bars
func BarsPerYear(interval string) (float64, error) {
	d, err := ParseInterval(interval)
	if err != nil {
		return 0, err
	}
	return float64(hoursPerYear*time.Hour) / float64(d), nil
}

// ParseTrailingPeriod parses period strings like "7d", "30d", "180d", "1mo", "1y"
func ParseTrailingPeriod(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasSuffix(s, "days") {
		s = strings.TrimSuffix(s, "days") + "d"
	}

	units := []struct {
		suffix string
		days   int
	}{
		{"mo", 30},
		{"wk", 7},
		{"y", 365},
		{"d", 1},
	}
	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(s, u.suffix))
		if err != nil || n <= 0 {
			return 0, false
		}
		return time.Duration(n*u.days) * 24 * time.Hour, true
	}

	// allow raw durations too (e.g., 168h)
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d, true
	}
	return 0, false
}
