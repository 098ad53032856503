package data

import (
	"context"
	"fmt"
	"time"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

// FetchTrailing fetches the bars of the trailing period ending at now,
// e.g. period "30d" with interval "1h"
func FetchTrailing(ctx context.Context, p BarProvider, symbol, period, interval string, now time.Time) ([]types.OHLCV, error) {
	d, ok := ParseTrailingPeriod(period)
	if !ok {
		return nil, fmt.Errorf("invalid period %q", period)
	}
	if _, err := ParseInterval(interval); err != nil {
		return nil, err
	}
	return p.FetchBars(ctx, symbol, now.Add(-d), now, interval)
}
