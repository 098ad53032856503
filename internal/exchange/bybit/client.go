package bybit

import (
	"context"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/rs/zerolog"
)

const (
	defaultCategory  = "linear"
	defaultPageLimit = 1000
)

// klineFetcher issues one market kline request
type klineFetcher func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// Client reads historical klines from the Bybit v5 market API
type Client struct {
	fetch    klineFetcher
	category string
	limit    int
	testnet  bool
	retry    RetryConfig
	log      zerolog.Logger
}

// Config holds the configuration for the Bybit client. Market data is
// public, so the credentials may be empty.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string // overrides the Testnet choice when set
	Testnet   bool
	Category  string // "spot", "linear", "inverse"
	PageLimit int    // rows per request, at most 1000
}

// NewClient creates a new Bybit client
func NewClient(config Config, logger zerolog.Logger) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		if config.Testnet {
			baseURL = bybit_api.TESTNET
		} else {
			baseURL = bybit_api.MAINNET
		}
	}

	httpClient := bybit_api.NewBybitHttpClient(
		config.APIKey,
		config.APISecret,
		bybit_api.WithBaseURL(baseURL),
	)

	fetch := func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		return httpClient.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	}
	return newClient(config, fetch, logger)
}

func newClient(config Config, fetch klineFetcher, logger zerolog.Logger) *Client {
	category := config.Category
	if category == "" {
		category = defaultCategory
	}
	limit := config.PageLimit
	if limit <= 0 || limit > defaultPageLimit {
		limit = defaultPageLimit
	}
	return &Client{
		fetch:    fetch,
		category: category,
		limit:    limit,
		testnet:  config.Testnet,
		retry:    DefaultRetryConfig(),
		log:      logger.With().Str("component", "bybit").Logger(),
	}
}

// Name returns the name of the data provider
func (c *Client) Name() string {
	return "Bybit"
}

// GetEnvironment returns a string describing the current environment
func (c *Client) GetEnvironment() string {
	if c.testnet {
		return "testnet"
	}
	return "mainnet"
}
