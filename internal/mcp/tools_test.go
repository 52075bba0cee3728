package mcp

import (
	"context"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"whitebit-mcp/internal/domain"
)

func TestToolsListAndInvoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, market, _, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	tools, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools failed: %v", err)
	}
	names := toolNames(tools)
	for _, want := range []string{
		"get_server_time", "get_server_status", "get_market_info", "get_market_activity",
		"get_asset_status_list", "get_assets", "get_orderbook", "get_recent_trades",
		"get_ticker", "get_fee", "get_kline", "get_symbols",
		"get_trading_balance", "create_limit_order", "create_stop_limit_order",
		"active_orders", "cancel_order",
		"get_last_price", "get_market_depth",
	} {
		if !names[want] {
			t.Fatalf("expected tool %s to be registered", want)
		}
	}

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "get_ticker", Arguments: map[string]any{"market": "btc_usdt"}})
	if err != nil {
		t.Fatalf("get_ticker failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	var ticker tickerOutput
	if err := decodeToolJSON(res, &ticker); err != nil {
		t.Fatalf("decode ticker failed: %v", err)
	}
	if ticker.Market != "BTC_USDT" {
		t.Fatalf("expected normalized market BTC_USDT, got %s", ticker.Market)
	}
	if ticker.Ticker == nil || ticker.Ticker.Last != "40000" {
		t.Fatalf("unexpected ticker payload: %+v", ticker.Ticker)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "get_orderbook", Arguments: map[string]any{"market": "BTC_USDT"}})
	if err != nil {
		t.Fatalf("get_orderbook failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected orderbook error: %+v", res.Content)
	}
	if market.lastOrderbookLimit != defaultOrderbookLimit {
		t.Fatalf("expected default orderbook limit %d, got %d", defaultOrderbookLimit, market.lastOrderbookLimit)
	}
	if market.lastOrderbookLevel != 0 {
		t.Fatalf("expected aggregation level 0, got %d", market.lastOrderbookLevel)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "get_recent_trades", Arguments: map[string]any{"market": "BTC_USDT", "type": "sell", "limit": 1}})
	if err != nil {
		t.Fatalf("get_recent_trades failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected trades error: %+v", res.Content)
	}
	var trades recentTradesOutput
	if err := decodeToolJSON(res, &trades); err != nil {
		t.Fatalf("decode trades failed: %v", err)
	}
	if len(trades.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades.Trades))
	}
	if market.lastTradeType != "sell" {
		t.Fatalf("expected trade type sell, got %q", market.lastTradeType)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "get_kline", Arguments: map[string]any{"market": "BTC_USDT", "interval": "1h"}})
	if err != nil {
		t.Fatalf("get_kline failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected kline error: %+v", res.Content)
	}
	if market.lastKlineInterval != "1h" {
		t.Fatalf("expected interval 1h, got %s", market.lastKlineInterval)
	}
	if market.lastKlineLimit != defaultKlineLimit {
		t.Fatalf("expected default kline limit %d, got %d", defaultKlineLimit, market.lastKlineLimit)
	}
}

func TestToolsValidationFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, _, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "get_orderbook",
		Arguments: map[string]any{"market": "BTC_USDT", "level": 9},
	})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool-level validation error for bad aggregation level")
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "get_kline",
		Arguments: map[string]any{"market": "BTC_USDT", "interval": "7h"},
	})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool-level validation error for bad interval")
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "get_ticker",
		Arguments: map[string]any{"market": "not a market"},
	})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool-level validation error for bad market name")
	}
}

func TestTradingToolsInvoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, trading, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "create_limit_order",
		Arguments: map[string]any{"market": "btc_usdt", "side": "BUY", "amount": 0.001, "price": 40000},
	})
	if err != nil {
		t.Fatalf("create_limit_order failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if trading.lastMarket != "BTC_USDT" {
		t.Fatalf("expected normalized market BTC_USDT, got %s", trading.lastMarket)
	}
	if trading.lastSide != domain.SideBuy {
		t.Fatalf("expected side buy, got %s", trading.lastSide)
	}
	if trading.lastAmount.String() != "0.001" {
		t.Fatalf("expected amount 0.001, got %s", trading.lastAmount)
	}
	if trading.lastPrice.String() != "40000" {
		t.Fatalf("expected price 40000, got %s", trading.lastPrice)
	}
	var order orderOutput
	if err := decodeToolJSON(res, &order); err != nil {
		t.Fatalf("decode order failed: %v", err)
	}
	if order.Order == nil || order.Order.OrderID != 4180284841 {
		t.Fatalf("unexpected order payload: %+v", order.Order)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name: "create_stop_limit_order",
		Arguments: map[string]any{
			"market": "BTC_USDT", "side": "sell",
			"amount": 0.001, "price": 39000, "activation_price": 39500,
		},
	})
	if err != nil {
		t.Fatalf("create_stop_limit_order failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if trading.lastActivation.String() != "39500" {
		t.Fatalf("expected activation price 39500, got %s", trading.lastActivation)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "cancel_order",
		Arguments: map[string]any{"market": "BTC_USDT", "order_id": 4180284841},
	})
	if err != nil {
		t.Fatalf("cancel_order failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if trading.lastOrderID != 4180284841 {
		t.Fatalf("expected order id 4180284841, got %d", trading.lastOrderID)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "active_orders",
		Arguments: map[string]any{"market": "eth_btc", "limit": 10, "offset": 5},
	})
	if err != nil {
		t.Fatalf("active_orders failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if trading.lastMarket != "ETH_BTC" {
		t.Fatalf("expected normalized market ETH_BTC, got %s", trading.lastMarket)
	}
	if trading.lastLimit != 10 || trading.lastOffset != 5 {
		t.Fatalf("expected paging 10/5, got %d/%d", trading.lastLimit, trading.lastOffset)
	}
}

func TestTradingToolRejectsBadAmount(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, trading, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "create_limit_order",
		Arguments: map[string]any{"market": "BTC_USDT", "side": "buy", "amount": -1, "price": 40000},
	})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool-level validation error for negative amount")
	}
	if trading.lastMarket != "" {
		t.Fatal("expected order placement to be rejected before reaching the provider")
	}
}

func TestStreamToolsInvoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, _, stream := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "get_last_price", Arguments: map[string]any{"market": "btc_usdt"}})
	if err != nil {
		t.Fatalf("get_last_price failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	var price lastPriceOutput
	if err := decodeToolJSON(res, &price); err != nil {
		t.Fatalf("decode last price failed: %v", err)
	}
	if price.LastPrice == nil || price.LastPrice.Price != "40123.5" {
		t.Fatalf("unexpected last price payload: %+v", price.LastPrice)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "get_market_depth", Arguments: map[string]any{"market": "BTC_USDT", "limit": 5}})
	if err != nil {
		t.Fatalf("get_market_depth failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if stream.lastDepthMarket != "BTC_USDT" {
		t.Fatalf("expected depth market BTC_USDT, got %s", stream.lastDepthMarket)
	}
	if stream.lastDepthLimit != 5 {
		t.Fatalf("expected depth limit 5, got %d", stream.lastDepthLimit)
	}
}

func TestTradingAndStreamToolsAbsentWithoutProviders(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv := publicOnlyServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	tools, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools failed: %v", err)
	}
	names := toolNames(tools)
	for _, absent := range []string{
		"get_trading_balance", "create_limit_order", "create_stop_limit_order",
		"active_orders", "cancel_order", "get_last_price", "get_market_depth",
	} {
		if names[absent] {
			t.Fatalf("expected tool %s to be absent without its provider", absent)
		}
	}
	if !names["get_ticker"] {
		t.Fatal("expected market data tools to remain registered")
	}
}
