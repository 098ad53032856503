package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/ducminhle1904/ict-trading-agent/pkg/data"
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

// KlineInterval represents the time interval for kline data
type KlineInterval string

const (
	Interval1m  KlineInterval = "1"
	Interval3m  KlineInterval = "3"
	Interval5m  KlineInterval = "5"
	Interval15m KlineInterval = "15"
	Interval30m KlineInterval = "30"
	Interval1h  KlineInterval = "60"
	Interval2h  KlineInterval = "120"
	Interval4h  KlineInterval = "240"
	Interval6h  KlineInterval = "360"
	Interval12h KlineInterval = "720"
	Interval1d  KlineInterval = "D"
	Interval1w  KlineInterval = "W"
	Interval1M  KlineInterval = "M"
)

var intervalsByMinutes = map[int]KlineInterval{
	1:     Interval1m,
	3:     Interval3m,
	5:     Interval5m,
	15:    Interval15m,
	30:    Interval30m,
	60:    Interval1h,
	120:   Interval2h,
	240:   Interval4h,
	360:   Interval6h,
	720:   Interval12h,
	1440:  Interval1d,
	10080: Interval1w,
}

// ToKlineInterval maps intervals like "15m", "1h" or "1d" to Bybit's codes
func ToKlineInterval(interval string) (KlineInterval, error) {
	if interval == "1M" || interval == "M" {
		return Interval1M, nil
	}
	switch KlineInterval(interval) {
	case Interval1d, Interval1w:
		return KlineInterval(interval), nil
	}
	d, err := data.ParseInterval(interval)
	if err != nil {
		return "", err
	}
	code, ok := intervalsByMinutes[int(d/time.Minute)]
	if !ok {
		return "", fmt.Errorf("interval %q is not supported by Bybit", interval)
	}
	return code, nil
}

// KlineParams holds parameters for fetching kline data
type KlineParams struct {
	Category string
	Symbol   string
	Interval KlineInterval
	Start    *time.Time
	End      *time.Time
	Limit    int // max 1000
}

// GetKlines fetches one page of klines. Bybit returns rows newest first.
func (c *Client) GetKlines(ctx context.Context, params KlineParams) ([]types.OHLCV, error) {
	if params.Category == "" {
		params.Category = c.category
	}
	if params.Limit <= 0 || params.Limit > defaultPageLimit {
		params.Limit = c.limit
	}

	reqParams := map[string]interface{}{
		"category": params.Category,
		"symbol":   params.Symbol,
		"interval": string(params.Interval),
		"limit":    params.Limit,
	}
	if params.Start != nil {
		reqParams["start"] = params.Start.UnixMilli()
	}
	if params.End != nil {
		reqParams["end"] = params.End.UnixMilli()
	}

	var bars []types.OHLCV
	err := c.Retry(ctx, func() error {
		result, err := c.fetch(ctx, reqParams)
		if err != nil {
			return err
		}
		bars, err = parseKlineResponse(result)
		return err
	})
	if err != nil {
		return nil, toAppError("get_klines", err).WithContext("symbol", params.Symbol)
	}
	return bars, nil
}

// FetchBars pages backwards from end until start is covered and returns the
// bars in [start, end] in ascending order
func (c *Client) FetchBars(ctx context.Context, symbol string, start, end time.Time, interval string) ([]types.OHLCV, error) {
	code, err := ToKlineInterval(interval)
	if err != nil {
		return nil, err
	}

	var all []types.OHLCV
	cursor := end
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		from, to := start, cursor
		rows, err := c.GetKlines(ctx, KlineParams{
			Symbol:   symbol,
			Interval: code,
			Start:    &from,
			End:      &to,
			Limit:    c.limit,
		})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}
		all = append(all, rows...)

		oldest := rows[0].Timestamp
		for _, r := range rows[1:] {
			if r.Timestamp.Before(oldest) {
				oldest = r.Timestamp
			}
		}
		c.log.Debug().Str("symbol", symbol).Int("page", page).Int("rows", len(rows)).Time("oldest", oldest).Msg("Fetched kline page")

		if len(rows) < c.limit || !oldest.After(start) {
			break
		}
		cursor = oldest.Add(-time.Millisecond)
	}

	filter := data.NewDefaultDataFilter()
	bars := filter.RemoveDuplicates(filter.SortByTimestamp(all))
	bars = filter.FilterByDateRange(bars, start, end)
	c.log.Info().Str("symbol", symbol).Str("interval", interval).Int("bars", len(bars)).Msg("Loaded klines")
	return bars, nil
}

// parseKlineResponse parses the API response into bars
func parseKlineResponse(response interface{}) ([]types.OHLCV, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type %T", response)
	}
	if err := ParseAPIError(serverResp.RetCode, serverResp.RetMsg); err != nil {
		return nil, err
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	var klineResult struct {
		Symbol   string     `json:"symbol"`
		Category string     `json:"category"`
		List     [][]string `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &klineResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kline result: %w", err)
	}

	bars := make([]types.OHLCV, 0, len(klineResult.List))
	for _, item := range klineResult.List {
		// [startTime, openPrice, highPrice, lowPrice, closePrice, volume, turnover]
		if len(item) < 6 {
			continue
		}
		ms, err := strconv.ParseInt(item[0], 10, 64)
		if err != nil {
			continue
		}
		var values [5]float64
		valid := true
		for k := range values {
			if values[k], err = strconv.ParseFloat(item[k+1], 64); err != nil {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}
		bars = append(bars, types.OHLCV{
			Timestamp: time.UnixMilli(ms).UTC(),
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
		})
	}
	return bars, nil
}
