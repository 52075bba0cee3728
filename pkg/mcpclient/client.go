// Package mcpclient is a typed Go client for the WhiteBit MCP server. It
// wraps an MCP session and exposes one method per tool plus readers for the
// whitebit:// resources.
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// EnvServerURL names the environment variable consulted when New is called
// with an empty server URL.
const EnvServerURL = "WHITEBIT_MCP_URL"

// Client talks to a WhiteBit MCP server. Construct with New, then Connect
// before calling tool or resource methods. Tool methods are safe for
// concurrent use once connected.
type Client struct {
	endpoint   string
	authToken  string
	useSSE     bool
	httpClient *http.Client
	transport  mcp.Transport
	impl       *mcp.Implementation
	session    *mcp.ClientSession
}

// Option configures a Client.
type Option func(*Client)

// WithTransport overrides the MCP transport. When set, the server URL is
// ignored; stdio and in-memory setups use this.
func WithTransport(t mcp.Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithAuthToken adds the token as a bearer Authorization header on every
// request of the HTTP transports.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

// WithHTTPClient replaces the HTTP client used by the HTTP transports. Do
// not set a client-wide timeout: the transport keeps a long-lived stream
// open.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSSE selects the SSE transport instead of streamable HTTP, for servers
// run with MCP_TRANSPORT=sse.
func WithSSE() Option {
	return func(c *Client) { c.useSSE = true }
}

// New builds a client for the server at serverURL. When serverURL is empty
// the WHITEBIT_MCP_URL environment variable is consulted; construction fails
// when neither is set and no transport override is given.
func New(serverURL string, opts ...Option) (*Client, error) {
	c := &Client{
		endpoint: strings.TrimSpace(serverURL),
		impl:     &mcp.Implementation{Name: "whitebit-mcp-client", Version: "1.0.0"},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.endpoint == "" {
		c.endpoint = strings.TrimSpace(os.Getenv(EnvServerURL))
	}
	if c.endpoint == "" && c.transport == nil {
		return nil, fmt.Errorf("mcpclient: no server URL given and %s is not set", EnvServerURL)
	}
	return c, nil
}

// Connect establishes the MCP session and runs the initialize handshake.
func (c *Client) Connect(ctx context.Context) error {
	if c.session != nil {
		return errors.New("mcpclient: already connected")
	}
	transport := c.transport
	if transport == nil {
		transport = c.newHTTPTransport()
	}
	session, err := mcp.NewClient(c.impl, nil).Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("mcpclient: connect: %w", err)
	}
	c.session = session
	return nil
}

func (c *Client) newHTTPTransport() mcp.Transport {
	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if c.authToken != "" {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		clone := *httpClient
		clone.Transport = &bearerRoundTripper{token: c.authToken, base: base}
		httpClient = &clone
	}
	if c.useSSE {
		return &mcp.SSEClientTransport{Endpoint: c.endpoint, HTTPClient: httpClient}
	}
	return &mcp.StreamableClientTransport{Endpoint: c.endpoint, HTTPClient: httpClient}
}

// Close terminates the session. Calling Close on an unconnected client is a
// no-op.
func (c *Client) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

// Session exposes the underlying MCP session for calls this wrapper does
// not cover. It is nil before Connect.
func (c *Client) Session() *mcp.ClientSession {
	return c.session
}

// Ping checks that the server is responsive.
func (c *Client) Ping(ctx context.Context) error {
	session, err := c.connected()
	if err != nil {
		return err
	}
	return session.Ping(ctx, nil)
}

// ListTools returns the tools the server advertises. Trading and stream
// tools are absent when the server runs without the matching backends.
func (c *Client) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	session, err := c.connected()
	if err != nil {
		return nil, err
	}
	res, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: list tools: %w", err)
	}
	return res.Tools, nil
}

func (c *Client) connected() (*mcp.ClientSession, error) {
	if c.session == nil {
		return nil, errors.New("mcpclient: not connected, call Connect first")
	}
	return c.session, nil
}

// CallTool invokes a named tool and decodes its first text content into out.
// A tool-level error result comes back as a Go error carrying the server's
// message. A nil out discards the result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any, out any) error {
	session, err := c.connected()
	if err != nil {
		return err
	}
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}
	if res.IsError {
		return fmt.Errorf("%s: %s", name, toolErrorText(res))
	}
	if out == nil {
		return nil
	}
	for _, content := range res.Content {
		text, ok := content.(*mcp.TextContent)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(text.Text), out); err != nil {
			return fmt.Errorf("decode %s result: %w", name, err)
		}
		return nil
	}
	return fmt.Errorf("%s: result has no text content", name)
}

func toolErrorText(res *mcp.CallToolResult) string {
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok && text.Text != "" {
			return text.Text
		}
	}
	return "tool failed"
}

// ReadResource reads a whitebit:// resource and decodes its JSON contents
// into out.
func (c *Client) ReadResource(ctx context.Context, uri string, out any) error {
	session, err := c.connected()
	if err != nil {
		return err
	}
	res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
	if err != nil {
		return fmt.Errorf("read %s: %w", uri, err)
	}
	for _, contents := range res.Contents {
		if contents.Text == "" {
			continue
		}
		if err := json.Unmarshal([]byte(contents.Text), out); err != nil {
			return fmt.Errorf("decode %s: %w", uri, err)
		}
		return nil
	}
	return fmt.Errorf("%s: resource has no text contents", uri)
}

type bearerRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (rt *bearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+rt.token)
	return rt.base.RoundTrip(clone)
}

// GetServerTime returns the exchange clock as unix seconds.
func (c *Client) GetServerTime(ctx context.Context) (int64, error) {
	var out serverTimeResult
	if err := c.CallTool(ctx, "get_server_time", nil, &out); err != nil {
		return 0, err
	}
	return out.Time, nil
}

// GetServerStatus returns the exchange maintenance status.
func (c *Client) GetServerStatus(ctx context.Context) (string, error) {
	var out serverStatusResult
	if err := c.CallTool(ctx, "get_server_status", nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// GetMarketInfo returns the full trading pair catalog.
func (c *Client) GetMarketInfo(ctx context.Context) ([]Market, error) {
	var out marketInfoResult
	if err := c.CallTool(ctx, "get_market_info", nil, &out); err != nil {
		return nil, err
	}
	return out.Markets, nil
}

// GetMarketActivity returns 24h activity for every market.
func (c *Client) GetMarketActivity(ctx context.Context) (map[string]MarketActivity, error) {
	var out marketActivityResult
	if err := c.CallTool(ctx, "get_market_activity", nil, &out); err != nil {
		return nil, err
	}
	return out.Activity, nil
}

// GetAssetStatusList returns deposit/withdraw status for every asset.
func (c *Client) GetAssetStatusList(ctx context.Context) ([]Asset, error) {
	var out assetStatusListResult
	if err := c.CallTool(ctx, "get_asset_status_list", nil, &out); err != nil {
		return nil, err
	}
	return out.Assets, nil
}

// GetAssets returns the asset map keyed by currency code. The same payload
// backs the whitebit://assets resource.
func (c *Client) GetAssets(ctx context.Context) (map[string]Asset, error) {
	var out assetsResult
	if err := c.CallTool(ctx, "get_assets", nil, &out); err != nil {
		return nil, err
	}
	return out.Assets, nil
}

// GetOrderbook returns up to limit price levels per side. Level 0 disables
// price aggregation; pass limit 0 for the server default.
func (c *Client) GetOrderbook(ctx context.Context, market string, limit, level int) (*OrderbookSnapshot, error) {
	var out orderbookResult
	args := map[string]any{"market": market, "limit": limit, "level": level}
	if err := c.CallTool(ctx, "get_orderbook", args, &out); err != nil {
		return nil, err
	}
	return out.Orderbook, nil
}

// GetRecentTrades returns the latest public trades, newest first. tradeType
// filters by side ("buy" or "sell"); empty means both.
func (c *Client) GetRecentTrades(ctx context.Context, market, tradeType string, limit int) ([]Trade, error) {
	var out recentTradesResult
	args := map[string]any{"market": market, "type": tradeType, "limit": limit}
	if err := c.CallTool(ctx, "get_recent_trades", args, &out); err != nil {
		return nil, err
	}
	return out.Trades, nil
}

// GetTicker returns the 24h ticker for one market.
func (c *Client) GetTicker(ctx context.Context, market string) (*Ticker, error) {
	var out tickerResult
	if err := c.CallTool(ctx, "get_ticker", map[string]any{"market": market}, &out); err != nil {
		return nil, err
	}
	return out.Ticker, nil
}

// GetFee returns the trading fee schedule for one market.
func (c *Client) GetFee(ctx context.Context, market string) (*FeeSchedule, error) {
	var out feeResult
	if err := c.CallTool(ctx, "get_fee", map[string]any{"market": market}, &out); err != nil {
		return nil, err
	}
	return out.Fee, nil
}

// GetKline returns candles for the market and interval. start and end are
// unix seconds; zero leaves the bound open. Pass limit 0 for the server
// default.
func (c *Client) GetKline(ctx context.Context, market, interval string, start, end int64, limit int) ([]Kline, error) {
	var out klineResult
	args := map[string]any{
		"market":   market,
		"interval": interval,
		"start":    start,
		"end":      end,
		"limit":    limit,
	}
	if err := c.CallTool(ctx, "get_kline", args, &out); err != nil {
		return nil, err
	}
	return out.Klines, nil
}

// GetSymbols returns the market name list.
func (c *Client) GetSymbols(ctx context.Context) ([]string, error) {
	var out symbolsResult
	if err := c.CallTool(ctx, "get_symbols", nil, &out); err != nil {
		return nil, err
	}
	return out.Symbols, nil
}

// GetTradingBalance returns the trade-account balances. Requires a server
// with API credentials.
func (c *Client) GetTradingBalance(ctx context.Context) ([]Balance, error) {
	var out tradingBalanceResult
	if err := c.CallTool(ctx, "get_trading_balance", nil, &out); err != nil {
		return nil, err
	}
	return out.Balances, nil
}

// CreateLimitOrder places a limit order and returns the exchange's view of
// it. Requires a server with API credentials.
func (c *Client) CreateLimitOrder(ctx context.Context, market, side string, amount, price float64) (*Order, error) {
	var out orderResult
	args := map[string]any{"market": market, "side": side, "amount": amount, "price": price}
	if err := c.CallTool(ctx, "create_limit_order", args, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

// CreateStopLimitOrder places a stop-limit order that activates at
// activationPrice. Requires a server with API credentials.
func (c *Client) CreateStopLimitOrder(ctx context.Context, market, side string, amount, price, activationPrice float64) (*Order, error) {
	var out orderResult
	args := map[string]any{
		"market":           market,
		"side":             side,
		"amount":           amount,
		"price":            price,
		"activation_price": activationPrice,
	}
	if err := c.CallTool(ctx, "create_stop_limit_order", args, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

// ActiveOrders lists unfilled orders. market may be empty to list across
// all markets; limit and offset page the result.
func (c *Client) ActiveOrders(ctx context.Context, market string, limit, offset int) ([]Order, error) {
	var out activeOrdersResult
	args := map[string]any{"market": market, "limit": limit, "offset": offset}
	if err := c.CallTool(ctx, "active_orders", args, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// CancelOrder cancels one order by exchange id and returns its final state.
func (c *Client) CancelOrder(ctx context.Context, market string, orderID int64) (*Order, error) {
	var out orderResult
	args := map[string]any{"market": market, "order_id": orderID}
	if err := c.CallTool(ctx, "cancel_order", args, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

// GetLastPrice returns the live last trade price from the exchange
// websocket.
func (c *Client) GetLastPrice(ctx context.Context, market string) (*LastPrice, error) {
	var out lastPriceResult
	if err := c.CallTool(ctx, "get_last_price", map[string]any{"market": market}, &out); err != nil {
		return nil, err
	}
	return out.LastPrice, nil
}

// GetMarketDepth returns live orderbook depth from the exchange websocket.
func (c *Client) GetMarketDepth(ctx context.Context, market string, limit int) (*MarketDepth, error) {
	var out marketDepthResult
	args := map[string]any{"market": market, "limit": limit}
	if err := c.CallTool(ctx, "get_market_depth", args, &out); err != nil {
		return nil, err
	}
	return out.Depth, nil
}

// GetMarkets reads the whitebit://markets resource.
func (c *Client) GetMarkets(ctx context.Context) ([]Market, error) {
	var out marketInfoResult
	if err := c.ReadResource(ctx, "whitebit://markets", &out); err != nil {
		return nil, err
	}
	return out.Markets, nil
}

// GetMarket reads whitebit://markets/{market} for one trading pair.
func (c *Client) GetMarket(ctx context.Context, market string) (*Market, error) {
	uri := "whitebit://markets/" + strings.ToUpper(strings.TrimSpace(market))
	var out marketResult
	if err := c.ReadResource(ctx, uri, &out); err != nil {
		return nil, err
	}
	return out.Market, nil
}

// GetAsset reads whitebit://assets/{asset} for one currency.
func (c *Client) GetAsset(ctx context.Context, asset string) (*Asset, error) {
	uri := "whitebit://assets/" + strings.ToUpper(strings.TrimSpace(asset))
	var out assetResult
	if err := c.ReadResource(ctx, uri, &out); err != nil {
		return nil, err
	}
	return out.Asset, nil
}
