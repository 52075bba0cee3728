package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerMarketTools(server *mcp.Server, market MarketDataProvider) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_server_time",
		Description: "Get the current WhiteBit server time as a unix timestamp",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ serverTimeInput) (*mcp.CallToolResult, serverTimeOutput, error) {
		if market == nil {
			return nil, serverTimeOutput{}, fmt.Errorf("market data unavailable")
		}
		st, err := market.ServerTime(ctx)
		if err != nil {
			return nil, serverTimeOutput{}, err
		}
		return nil, serverTimeOutput{Time: st.Time}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_server_status",
		Description: "Check whether the WhiteBit public API is reachable",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ serverStatusInput) (*mcp.CallToolResult, serverStatusOutput, error) {
		if market == nil {
			return nil, serverStatusOutput{}, fmt.Errorf("market data unavailable")
		}
		status, err := market.ServerStatus(ctx)
		if err != nil {
			return nil, serverStatusOutput{}, err
		}
		return nil, serverStatusOutput{Status: status.Status}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_market_info",
		Description: "Get configuration for all markets: precision, fees, and trade limits",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ marketInfoInput) (*mcp.CallToolResult, marketInfoOutput, error) {
		if market == nil {
			return nil, marketInfoOutput{}, fmt.Errorf("market data unavailable")
		}
		markets, err := market.MarketInfo(ctx)
		if err != nil {
			return nil, marketInfoOutput{}, err
		}
		return nil, marketInfoOutput{Markets: markets}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_market_activity",
		Description: "Get 24h price and volume activity for all markets",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ marketActivityInput) (*mcp.CallToolResult, marketActivityOutput, error) {
		if market == nil {
			return nil, marketActivityOutput{}, fmt.Errorf("market data unavailable")
		}
		activity, err := market.MarketActivity(ctx)
		if err != nil {
			return nil, marketActivityOutput{}, err
		}
		return nil, marketActivityOutput{Activity: activity}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_asset_status_list",
		Description: "Get deposit and withdrawal status for all assets",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ assetStatusListInput) (*mcp.CallToolResult, assetStatusListOutput, error) {
		if market == nil {
			return nil, assetStatusListOutput{}, fmt.Errorf("market data unavailable")
		}
		assets, err := market.AssetStatusList(ctx)
		if err != nil {
			return nil, assetStatusListOutput{}, err
		}
		return nil, assetStatusListOutput{Assets: assets}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_assets",
		Description: "Get the full asset map keyed by ticker, including network details",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ assetsInput) (*mcp.CallToolResult, assetsOutput, error) {
		if market == nil {
			return nil, assetsOutput{}, fmt.Errorf("market data unavailable")
		}
		assets, err := market.Assets(ctx)
		if err != nil {
			return nil, assetsOutput{}, err
		}
		return nil, assetsOutput{Assets: assets}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_orderbook",
		Description: "Get the current order book for a market",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in orderbookInput) (*mcp.CallToolResult, orderbookOutput, error) {
		if market == nil {
			return nil, orderbookOutput{}, fmt.Errorf("market data unavailable")
		}
		name, err := normalizeMarket(in.Market)
		if err != nil {
			return nil, orderbookOutput{}, err
		}
		level, err := normalizeAggregationLevel(in.Level)
		if err != nil {
			return nil, orderbookOutput{}, err
		}
		limit := normalizeOrderbookLimit(in.Limit)

		book, err := market.Orderbook(ctx, name, limit, level)
		if err != nil {
			return nil, orderbookOutput{}, err
		}
		return nil, orderbookOutput{Market: name, Orderbook: book}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_recent_trades",
		Description: "Get recently executed trades for a market, newest first",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in recentTradesInput) (*mcp.CallToolResult, recentTradesOutput, error) {
		if market == nil {
			return nil, recentTradesOutput{}, fmt.Errorf("market data unavailable")
		}
		name, err := normalizeMarket(in.Market)
		if err != nil {
			return nil, recentTradesOutput{}, err
		}
		tradeType, err := normalizeTradeType(in.Type)
		if err != nil {
			return nil, recentTradesOutput{}, err
		}
		limit := normalizeTradeLimit(in.Limit)

		trades, err := market.RecentTrades(ctx, name, tradeType, limit)
		if err != nil {
			return nil, recentTradesOutput{}, err
		}
		return nil, recentTradesOutput{Market: name, Trades: trades}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_ticker",
		Description: "Get the 24h ticker for one market",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tickerInput) (*mcp.CallToolResult, tickerOutput, error) {
		if market == nil {
			return nil, tickerOutput{}, fmt.Errorf("market data unavailable")
		}
		name, err := normalizeMarket(in.Market)
		if err != nil {
			return nil, tickerOutput{}, err
		}
		ticker, err := market.Ticker(ctx, name)
		if err != nil {
			return nil, tickerOutput{}, err
		}
		return nil, tickerOutput{Market: name, Ticker: ticker}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_fee",
		Description: "Get maker/taker fees and trade limits for one market",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in feeInput) (*mcp.CallToolResult, feeOutput, error) {
		if market == nil {
			return nil, feeOutput{}, fmt.Errorf("market data unavailable")
		}
		name, err := normalizeMarket(in.Market)
		if err != nil {
			return nil, feeOutput{}, err
		}
		fee, err := market.Fee(ctx, name)
		if err != nil {
			return nil, feeOutput{}, err
		}
		return nil, feeOutput{Fee: fee}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_kline",
		Description: "Get OHLCV candles for a market and interval, optionally bounded by a time range",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in klineInput) (*mcp.CallToolResult, klineOutput, error) {
		if market == nil {
			return nil, klineOutput{}, fmt.Errorf("market data unavailable")
		}
		name, err := normalizeMarket(in.Market)
		if err != nil {
			return nil, klineOutput{}, err
		}
		interval, err := normalizeKlineInterval(in.Interval)
		if err != nil {
			return nil, klineOutput{}, err
		}
		start, end, err := normalizeKlineRange(in.Start, in.End)
		if err != nil {
			return nil, klineOutput{}, err
		}
		limit := normalizeKlineLimit(in.Limit)

		klines, err := market.Klines(ctx, name, interval, start, end, limit)
		if err != nil {
			return nil, klineOutput{}, err
		}
		return nil, klineOutput{Market: name, Interval: interval, Klines: klines}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_symbols",
		Description: "Get the list of all market symbols",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ symbolsInput) (*mcp.CallToolResult, symbolsOutput, error) {
		if market == nil {
			return nil, symbolsOutput{}, fmt.Errorf("market data unavailable")
		}
		symbols, err := market.Symbols(ctx)
		if err != nil {
			return nil, symbolsOutput{}, err
		}
		return nil, symbolsOutput{Symbols: symbols}, nil
	})
}
