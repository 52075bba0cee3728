package whitebit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"whitebit-mcp/internal/domain"
)

// ServerTime fetches the exchange clock.
func (c *Client) ServerTime(ctx context.Context) (*domain.ServerTime, error) {
	var out domain.ServerTime
	if err := c.getJSON(ctx, "/api/v4/public/time", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping checks that the public API answers. The endpoint returns ["pong"].
func (c *Client) Ping(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.getJSON(ctx, "/api/v4/public/ping", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Markets lists every market the exchange trades, with precision and fee
// configuration per market.
func (c *Client) Markets(ctx context.Context) ([]domain.Market, error) {
	var out []domain.Market
	if err := c.getJSON(ctx, "/api/v4/public/markets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Market returns the configuration of a single market.
func (c *Client) Market(ctx context.Context, market string) (*domain.Market, error) {
	markets, err := c.Markets(ctx)
	if err != nil {
		return nil, err
	}
	for i := range markets {
		if markets[i].Name == market {
			return &markets[i], nil
		}
	}
	return nil, fmt.Errorf("market %s: %w", market, ErrNotFound)
}

// MarketActivity returns 24h activity keyed by market name.
func (c *Client) MarketActivity(ctx context.Context) (map[string]domain.MarketActivity, error) {
	var out map[string]domain.MarketActivity
	if err := c.getJSON(ctx, "/api/v4/public/ticker", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Orderbook fetches the current book for a market. limit caps the number of
// price levels per side, level sets WhiteBit's price aggregation step; zero
// values leave the exchange defaults in place.
func (c *Client) Orderbook(ctx context.Context, market string, limit, level int) (*domain.OrderbookSnapshot, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if level > 0 {
		query.Set("level", strconv.Itoa(level))
	}

	var out domain.OrderbookSnapshot
	path := "/api/v4/public/orderbook/" + url.PathEscape(market)
	if err := c.getJSON(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecentTrades returns the latest executed trades for a market, newest
// first. tradeType filters by "buy" or "sell" when non-empty.
func (c *Client) RecentTrades(ctx context.Context, market, tradeType string) ([]domain.Trade, error) {
	query := url.Values{}
	if tradeType != "" {
		query.Set("type", tradeType)
	}

	var out []domain.Trade
	path := "/api/v4/public/trades/" + url.PathEscape(market)
	if err := c.getJSON(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Assets returns deposit/withdraw status for every listed asset, keyed by
// asset ticker.
func (c *Client) Assets(ctx context.Context) (map[string]domain.Asset, error) {
	var out map[string]domain.Asset
	if err := c.getJSON(ctx, "/api/v4/public/assets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Asset returns the status of a single asset.
func (c *Client) Asset(ctx context.Context, name string) (*domain.Asset, error) {
	assets, err := c.Assets(ctx)
	if err != nil {
		return nil, err
	}
	asset, ok := assets[name]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", name, ErrNotFound)
	}
	asset.Name = name
	return &asset, nil
}

// Ticker returns the v1 ticker for one market.
func (c *Client) Ticker(ctx context.Context, market string) (*domain.Ticker, error) {
	query := url.Values{}
	query.Set("market", market)

	var out domain.Ticker
	if err := c.getEnveloped(ctx, "/api/v1/public/ticker", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tickers returns v1 tickers for all markets keyed by market name.
func (c *Client) Tickers(ctx context.Context) (map[string]domain.TickerEntry, error) {
	var out map[string]domain.TickerEntry
	if err := c.getEnveloped(ctx, "/api/v1/public/tickers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Symbols lists the market names known to the v1 API.
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.getEnveloped(ctx, "/api/v1/public/symbols", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Klines returns candles for a market. start and end are unix seconds and
// optional; limit caps the row count when positive.
func (c *Client) Klines(ctx context.Context, market, interval string, start, end int64, limit int) ([]domain.Kline, error) {
	query := url.Values{}
	query.Set("market", market)
	query.Set("interval", interval)
	if start > 0 {
		query.Set("start", strconv.FormatInt(start, 10))
	}
	if end > 0 {
		query.Set("end", strconv.FormatInt(end, 10))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var out []domain.Kline
	if err := c.getEnveloped(ctx, "/api/v1/public/kline", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Fee resolves the trading fee schedule for a market from its market
// configuration. WhiteBit publishes maker and taker rates there rather than
// on a dedicated endpoint.
func (c *Client) Fee(ctx context.Context, market string) (*domain.FeeSchedule, error) {
	m, err := c.Market(ctx, market)
	if err != nil {
		return nil, err
	}
	return &domain.FeeSchedule{
		Market:    m.Name,
		Maker:     m.MakerFee,
		Taker:     m.TakerFee,
		MinAmount: m.MinAmount,
		MinTotal:  m.MinTotal,
		MaxTotal:  m.MaxTotal,
	}, nil
}
