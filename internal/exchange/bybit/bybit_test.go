package bybit

import (
	"context"
	"strconv"
	"testing"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	apperrors "github.com/ducminhle1904/ict-trading-agent/internal/errors"
	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func klineRow(ts time.Time, price float64) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	return []string{strconv.FormatInt(ts.UnixMilli(), 10), f(price), f(price + 1), f(price - 1), f(price + 0.5), "12.5", "1000"}
}

func okResponse(rows [][]string) *bybit_api.ServerResponse {
	return &bybit_api.ServerResponse{
		RetCode: 0,
		RetMsg:  "OK",
		Result: map[string]interface{}{
			"symbol":   "BTCUSDT",
			"category": "linear",
			"list":     rows,
		},
	}
}

// exchangeStub serves hourly bars newest first, honoring start, end and limit
type exchangeStub struct {
	bars   []time.Time
	calls  int
	params []map[string]interface{}
}

func (s *exchangeStub) fetch(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	s.calls++
	s.params = append(s.params, params)
	start := params["start"].(int64)
	end := params["end"].(int64)
	limit := params["limit"].(int)

	var rows [][]string
	for i := len(s.bars) - 1; i >= 0 && len(rows) < limit; i-- {
		ms := s.bars[i].UnixMilli()
		if ms < start || ms > end {
			continue
		}
		rows = append(rows, klineRow(s.bars[i], 100+float64(i)))
	}
	return okResponse(rows), nil
}

func testClient(fetch klineFetcher, limit int) *Client {
	c := newClient(Config{PageLimit: limit}, fetch, zerolog.Nop())
	c.retry = RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2}
	return c
}

// TestToKlineInterval tests the interval mapping
func TestToKlineInterval(t *testing.T) {
	cases := map[string]KlineInterval{
		"1m":  Interval1m,
		"15m": Interval15m,
		"1h":  Interval1h,
		"60":  Interval1h,
		"4h":  Interval4h,
		"1d":  Interval1d,
		"D":   Interval1d,
		"1w":  Interval1w,
		"1M":  Interval1M,
	}
	for in, want := range cases {
		got, err := ToKlineInterval(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ToKlineInterval("7m")
	assert.Error(t, err)
	_, err = ToKlineInterval("soon")
	assert.Error(t, err)
}

// TestFetchBars_Paging tests that pages are walked backwards and sorted ascending
func TestFetchBars_Paging(t *testing.T) {
	stub := &exchangeStub{}
	for i := 0; i < 7; i++ {
		stub.bars = append(stub.bars, t0.Add(time.Duration(i)*time.Hour))
	}
	c := testClient(stub.fetch, 3)

	bars, err := c.FetchBars(context.Background(), "BTCUSDT", t0, t0.Add(6*time.Hour), "1h")
	require.NoError(t, err)
	require.Len(t, bars, 7)
	assert.Equal(t, 3, stub.calls)

	for i, b := range bars {
		assert.Equal(t, t0.Add(time.Duration(i)*time.Hour), b.Timestamp)
		assert.Equal(t, 100+float64(i), b.Open)
	}
	assert.Equal(t, "60", stub.params[0]["interval"])
	assert.Equal(t, "linear", stub.params[0]["category"])
	assert.Equal(t, t0.Add(4*time.Hour).UnixMilli()-1, stub.params[1]["end"])
}

// TestFetchBars_RangeFilter tests that rows outside the window are dropped
func TestFetchBars_RangeFilter(t *testing.T) {
	rows := [][]string{
		klineRow(t0.Add(3*time.Hour), 103),
		klineRow(t0.Add(2*time.Hour), 102),
		klineRow(t0.Add(time.Hour), 101),
		klineRow(t0.Add(time.Hour), 101),
	}
	fetch := func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		return okResponse(rows), nil
	}

	bars, err := testClient(fetch, 1000).FetchBars(context.Background(), "BTCUSDT", t0.Add(time.Hour), t0.Add(2*time.Hour), "1h")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, t0.Add(time.Hour), bars[0].Timestamp)
	assert.Equal(t, t0.Add(2*time.Hour), bars[1].Timestamp)
}

// TestGetKlines_APIError tests that parameter errors are not retried
func TestGetKlines_APIError(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		calls++
		return &bybit_api.ServerResponse{RetCode: ErrCodeParamsError, RetMsg: "params error"}, nil
	}

	_, err := testClient(fetch, 1000).FetchBars(context.Background(), "BTCUSDT", t0, t0.Add(time.Hour), "1h")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, apperrors.Is(err, apperrors.ErrorCategoryExchange))
}

// TestGetKlines_RateLimitRetry tests retrying rate limited requests
func TestGetKlines_RateLimitRetry(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		calls++
		if calls < 3 {
			return &bybit_api.ServerResponse{RetCode: ErrCodeRateLimitExceeded, RetMsg: "Too many visits"}, nil
		}
		return okResponse([][]string{klineRow(t0, 100)}), nil
	}

	bars, err := testClient(fetch, 1000).GetKlines(context.Background(), KlineParams{Symbol: "BTCUSDT", Interval: Interval1h})
	require.NoError(t, err)
	assert.Len(t, bars, 1)
	assert.Equal(t, 3, calls)
}

// TestGetKlines_RetryExhausted tests the categorized error after the last attempt
func TestGetKlines_RetryExhausted(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		calls++
		return &bybit_api.ServerResponse{RetCode: ErrCodeRateLimitExceeded}, nil
	}
	c := testClient(fetch, 1000)
	c.retry.MaxRetries = 1

	_, err := c.GetKlines(context.Background(), KlineParams{Symbol: "BTCUSDT", Interval: Interval1h})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, apperrors.Is(err, apperrors.ErrorCategoryRateLimit))
	assert.Contains(t, err.Error(), "Rate limit exceeded")
}

// TestParseKlineResponse tests that malformed rows are skipped
func TestParseKlineResponse(t *testing.T) {
	rows := [][]string{
		klineRow(t0, 100),
		{"bad", "1", "2", "0.5", "1.5", "3"},
		{strconv.FormatInt(t0.UnixMilli(), 10), "1", "x", "0.5", "1.5", "3"},
		{"1"},
	}

	bars, err := parseKlineResponse(okResponse(rows))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, types.OHLCV{Timestamp: t0, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 12.5}, bars[0])

	_, err = parseKlineResponse("not a response")
	assert.Error(t, err)
}

// TestFetchBars_Canceled tests that a done context stops paging
func TestFetchBars_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &exchangeStub{}
	_, err := testClient(stub.fetch, 1000).FetchBars(ctx, "BTCUSDT", t0, t0.Add(time.Hour), "1h")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stub.calls)
}

// TestErrorHelpers tests classification of API errors
func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsRetryableError(NewBybitError(503, "unavailable")))
	assert.False(t, IsRetryableError(NewBybitError(ErrCodeParamsError, "bad")))
	assert.True(t, IsAuthenticationError(NewBybitError(ErrCodeInvalidAPIKey, "key")))
	assert.True(t, IsRateLimitError(NewBybitError(ErrCodeRateLimitExceeded, "slow down")))
	assert.Nil(t, ParseAPIError(0, "OK"))
	assert.Equal(t, "Bybit API error 110009: Symbol not found", ParseAPIError(ErrCodeSymbolNotFound, "").Error())
	assert.Equal(t, "Unknown error code: 42", GetErrorDescription(42))
	assert.Equal(t, "Bybit", testClient(nil, 0).Name())
}
