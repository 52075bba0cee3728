package mcp

import (
	"context"

	"github.com/shopspring/decimal"

	"whitebit-mcp/internal/domain"
)

// MarketDataProvider exposes the guarded public market data reads.
type MarketDataProvider interface {
	ServerTime(ctx context.Context) (*domain.ServerTime, error)
	ServerStatus(ctx context.Context) (*domain.ServerStatus, error)
	MarketInfo(ctx context.Context) ([]domain.Market, error)
	MarketByName(ctx context.Context, market string) (*domain.Market, error)
	MarketActivity(ctx context.Context) (map[string]domain.MarketActivity, error)
	AssetStatusList(ctx context.Context) ([]domain.Asset, error)
	AssetStatus(ctx context.Context, name string) (*domain.Asset, error)
	Assets(ctx context.Context) (map[string]domain.Asset, error)
	Orderbook(ctx context.Context, market string, limit, level int) (*domain.OrderbookSnapshot, error)
	RecentTrades(ctx context.Context, market, tradeType string, limit int) ([]domain.Trade, error)
	Ticker(ctx context.Context, market string) (*domain.Ticker, error)
	Fee(ctx context.Context, market string) (*domain.FeeSchedule, error)
	Klines(ctx context.Context, market, interval string, start, end int64, limit int) ([]domain.Kline, error)
	Symbols(ctx context.Context) ([]string, error)
}

// TradingProvider executes signed account operations.
type TradingProvider interface {
	TradingBalance(ctx context.Context) ([]domain.Balance, error)
	NewLimitOrder(ctx context.Context, market string, side domain.OrderSide, amount, price decimal.Decimal) (*domain.Order, error)
	NewStopLimitOrder(ctx context.Context, market string, side domain.OrderSide, amount, price, activationPrice decimal.Decimal) (*domain.Order, error)
	CancelOrder(ctx context.Context, market string, orderID int64) (*domain.Order, error)
	ActiveOrders(ctx context.Context, market string, limit, offset int) ([]domain.Order, error)
}

// StreamProvider answers point queries over the exchange websocket.
type StreamProvider interface {
	LastPrice(ctx context.Context, market string) (*domain.LastPrice, error)
	Depth(ctx context.Context, market string, limit int) (*domain.MarketDepth, error)
}
