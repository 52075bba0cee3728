package mcp

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"whitebit-mcp/internal/domain"
)

const (
	defaultOrderbookLimit = 100
	maxOrderbookLimit     = 100
	maxAggregationLevel   = 5
	defaultTradeLimit     = 100
	maxTradeLimit         = 500
	defaultKlineLimit     = 100
	maxKlineLimit         = 1440
	defaultDepthLimit     = 100
	maxDepthLimit         = 100
)

type serverTimeInput struct{}

type serverTimeOutput struct {
	Time int64 `json:"time"`
}

type serverStatusInput struct{}

type serverStatusOutput struct {
	Status string `json:"status"`
}

type marketInfoInput struct{}

type marketInfoOutput struct {
	Markets []domain.Market `json:"markets"`
}

type marketOutput struct {
	Market *domain.Market `json:"market"`
}

type marketActivityInput struct{}

type marketActivityOutput struct {
	Activity map[string]domain.MarketActivity `json:"activity"`
}

type assetStatusListInput struct{}

type assetStatusListOutput struct {
	Assets []domain.Asset `json:"assets"`
}

type assetsInput struct{}

type assetsOutput struct {
	Assets map[string]domain.Asset `json:"assets"`
}

type assetOutput struct {
	Asset *domain.Asset `json:"asset"`
}

type orderbookInput struct {
	Market string `json:"market" jsonschema:"trading pair in BASE_QUOTE form (e.g. BTC_USDT)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"price levels per side, 1-100, default 100"`
	Level  int    `json:"level,omitempty" jsonschema:"price aggregation level, 0-5, default 0"`
}

type orderbookOutput struct {
	Market    string                    `json:"market"`
	Orderbook *domain.OrderbookSnapshot `json:"orderbook"`
}

type recentTradesInput struct {
	Market string `json:"market" jsonschema:"trading pair in BASE_QUOTE form (e.g. BTC_USDT)"`
	Type   string `json:"type,omitempty" jsonschema:"optional side filter: buy or sell"`
	Limit  int    `json:"limit,omitempty" jsonschema:"number of trades to return, max 500, default 100"`
}

type recentTradesOutput struct {
	Market string         `json:"market"`
	Trades []domain.Trade `json:"trades"`
}

type tickerInput struct {
	Market string `json:"market" jsonschema:"trading pair in BASE_QUOTE form (e.g. BTC_USDT)"`
}

type tickerOutput struct {
	Market string         `json:"market"`
	Ticker *domain.Ticker `json:"ticker"`
}

type feeInput struct {
	Market string `json:"market" jsonschema:"trading pair in BASE_QUOTE form (e.g. BTC_USDT)"`
}

type feeOutput struct {
	Fee *domain.FeeSchedule `json:"fee"`
}

type klineInput struct {
	Market   string `json:"market" jsonschema:"trading pair in BASE_QUOTE form (e.g. BTC_USDT)"`
	Interval string `json:"interval" jsonschema:"candle interval: 1m, 3m, 5m, 15m, 30m, 1h, 2h, 4h, 6h, 8h, 12h, 1d, 3d, 1w, 1M"`
	Start    int64  `json:"start,omitempty" jsonschema:"optional range start, unix seconds"`
	End      int64  `json:"end,omitempty" jsonschema:"optional range end, unix seconds"`
	Limit    int    `json:"limit,omitempty" jsonschema:"number of candles to return, max 1440, default 100"`
}

type klineOutput struct {
	Market   string         `json:"market"`
	Interval string         `json:"interval"`
	Klines   []domain.Kline `json:"klines"`
}

type symbolsInput struct{}

type symbolsOutput struct {
	Symbols []string `json:"symbols"`
}

type tradingBalanceInput struct{}

type tradingBalanceOutput struct {
	Balances []domain.Balance `json:"balances"`
}

type limitOrderInput struct {
	Market string  `json:"market" jsonschema:"trading pair in BASE_QUOTE form (e.g. BTC_USDT)"`
	Side   string  `json:"side" jsonschema:"order side: buy or sell"`
	Amount float64 `json:"amount" jsonschema:"order amount in base currency"`
	Price  float64 `json:"price" jsonschema:"limit price in quote currency"`
}

type stopLimitOrderInput struct {
	Market          string  `json:"market" jsonschema:"trading pair in BASE_QUOTE form (e.g. BTC_USDT)"`
	Side            string  `json:"side" jsonschema:"order side: buy or sell"`
	Amount          float64 `json:"amount" jsonschema:"order amount in base currency"`
	Price           float64 `json:"price" jsonschema:"limit price in quote currency"`
	ActivationPrice float64 `json:"activation_price" jsonschema:"price that activates the order"`
}

type orderOutput struct {
	Order *domain.Order `json:"order"`
}

type cancelOrderInput struct {
	Market  string `json:"market" jsonschema:"trading pair in BASE_QUOTE form (e.g. BTC_USDT)"`
	OrderID int64  `json:"order_id" jsonschema:"exchange order id to cancel"`
}

type activeOrdersInput struct {
	Market string `json:"market,omitempty" jsonschema:"optional trading pair filter (e.g. BTC_USDT)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"page size, default 50"`
	Offset int    `json:"offset,omitempty" jsonschema:"page offset"`
}

type activeOrdersOutput struct {
	Orders []domain.Order `json:"orders"`
}

type lastPriceInput struct {
	Market string `json:"market" jsonschema:"trading pair in BASE_QUOTE form (e.g. BTC_USDT)"`
}

type lastPriceOutput struct {
	LastPrice *domain.LastPrice `json:"last_price"`
}

type marketDepthInput struct {
	Market string `json:"market" jsonschema:"trading pair in BASE_QUOTE form (e.g. BTC_USDT)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"price levels per side, max 100, default 100"`
}

type marketDepthOutput struct {
	Depth *domain.MarketDepth `json:"depth"`
}

func normalizeMarket(market string) (string, error) {
	market = strings.ToUpper(strings.TrimSpace(market))
	if market == "" {
		return "", fmt.Errorf("market is required")
	}
	if !domain.IsMarketName(market) {
		return "", fmt.Errorf("invalid market name: %s", market)
	}
	return market, nil
}

func normalizeSide(side string) (domain.OrderSide, error) {
	normalized := domain.OrderSide(strings.ToLower(strings.TrimSpace(side)))
	if !normalized.IsValid() {
		return "", fmt.Errorf("side must be buy or sell, got %q", side)
	}
	return normalized, nil
}

func normalizeTradeType(tradeType string) (string, error) {
	tradeType = strings.ToLower(strings.TrimSpace(tradeType))
	switch tradeType {
	case "", "buy", "sell":
		return tradeType, nil
	default:
		return "", fmt.Errorf("type must be buy or sell, got %q", tradeType)
	}
}

func normalizeOrderbookLimit(limit int) int {
	if limit <= 0 {
		return defaultOrderbookLimit
	}
	if limit > maxOrderbookLimit {
		return maxOrderbookLimit
	}
	return limit
}

func normalizeAggregationLevel(level int) (int, error) {
	if level < 0 || level > maxAggregationLevel {
		return 0, fmt.Errorf("level must be between 0 and %d", maxAggregationLevel)
	}
	return level, nil
}

func normalizeTradeLimit(limit int) int {
	if limit <= 0 {
		return defaultTradeLimit
	}
	if limit > maxTradeLimit {
		return maxTradeLimit
	}
	return limit
}

func normalizeKlineInterval(interval string) (string, error) {
	interval = strings.TrimSpace(interval)
	if interval == "" {
		return "", fmt.Errorf("interval is required")
	}
	if !domain.IsValidKlineInterval(interval) {
		return "", fmt.Errorf("unsupported interval %q, supported: %s", interval, strings.Join(domain.KlineIntervals, ", "))
	}
	return interval, nil
}

func normalizeKlineRange(start, end int64) (int64, int64, error) {
	if start < 0 || end < 0 {
		return 0, 0, fmt.Errorf("start and end must not be negative")
	}
	if start > 0 && end > 0 && start > end {
		return 0, 0, fmt.Errorf("start must not be after end")
	}
	return start, end, nil
}

func normalizeKlineLimit(limit int) int {
	if limit <= 0 {
		return defaultKlineLimit
	}
	if limit > maxKlineLimit {
		return maxKlineLimit
	}
	return limit
}

func normalizeDepthLimit(limit int) int {
	if limit <= 0 {
		return defaultDepthLimit
	}
	if limit > maxDepthLimit {
		return maxDepthLimit
	}
	return limit
}

// positiveDecimal converts a tool argument into an exact decimal, rejecting
// zero, negative, and non-finite values before they reach the exchange.
func positiveDecimal(name string, value float64) (decimal.Decimal, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Decimal{}, fmt.Errorf("%s must be a finite number", name)
	}
	if value <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%s must be positive", name)
	}
	return decimal.NewFromFloat(value), nil
}

func normalizeOrderID(orderID int64) (int64, error) {
	if orderID <= 0 {
		return 0, fmt.Errorf("order_id must be positive")
	}
	return orderID, nil
}
