package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"

	"whitebit-mcp/internal/domain"
)

type stubMarketData struct {
	serverTime *domain.ServerTime
	status     *domain.ServerStatus
	markets    []domain.Market
	activity   map[string]domain.MarketActivity
	assets     map[string]domain.Asset
	orderbook  *domain.OrderbookSnapshot
	trades     []domain.Trade
	ticker     *domain.Ticker
	fee        *domain.FeeSchedule
	klines     []domain.Kline
	symbols    []string

	lastOrderbookMarket string
	lastOrderbookLimit  int
	lastOrderbookLevel  int
	lastTradeType       string
	lastTradeLimit      int
	lastKlineInterval   string
	lastKlineLimit      int
}

func (s *stubMarketData) ServerTime(ctx context.Context) (*domain.ServerTime, error) {
	return s.serverTime, nil
}

func (s *stubMarketData) ServerStatus(ctx context.Context) (*domain.ServerStatus, error) {
	return s.status, nil
}

func (s *stubMarketData) MarketInfo(ctx context.Context) ([]domain.Market, error) {
	return append([]domain.Market(nil), s.markets...), nil
}

func (s *stubMarketData) MarketByName(ctx context.Context, market string) (*domain.Market, error) {
	for i := range s.markets {
		if s.markets[i].Name == market {
			found := s.markets[i]
			return &found, nil
		}
	}
	return nil, fmt.Errorf("market %s: %w", market, domain.ErrNotFound)
}

func (s *stubMarketData) MarketActivity(ctx context.Context) (map[string]domain.MarketActivity, error) {
	return s.activity, nil
}

func (s *stubMarketData) AssetStatusList(ctx context.Context) ([]domain.Asset, error) {
	list := make([]domain.Asset, 0, len(s.assets))
	for _, asset := range s.assets {
		list = append(list, asset)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *stubMarketData) AssetStatus(ctx context.Context, name string) (*domain.Asset, error) {
	if asset, ok := s.assets[name]; ok {
		return &asset, nil
	}
	return nil, fmt.Errorf("asset %s: %w", name, domain.ErrNotFound)
}

func (s *stubMarketData) Assets(ctx context.Context) (map[string]domain.Asset, error) {
	return s.assets, nil
}

func (s *stubMarketData) Orderbook(ctx context.Context, market string, limit, level int) (*domain.OrderbookSnapshot, error) {
	s.lastOrderbookMarket = market
	s.lastOrderbookLimit = limit
	s.lastOrderbookLevel = level
	return s.orderbook, nil
}

func (s *stubMarketData) RecentTrades(ctx context.Context, market, tradeType string, limit int) ([]domain.Trade, error) {
	s.lastTradeType = tradeType
	s.lastTradeLimit = limit
	trades := s.trades
	if len(trades) > limit {
		trades = trades[:limit]
	}
	return append([]domain.Trade(nil), trades...), nil
}

func (s *stubMarketData) Ticker(ctx context.Context, market string) (*domain.Ticker, error) {
	return s.ticker, nil
}

func (s *stubMarketData) Fee(ctx context.Context, market string) (*domain.FeeSchedule, error) {
	return s.fee, nil
}

func (s *stubMarketData) Klines(ctx context.Context, market, interval string, start, end int64, limit int) ([]domain.Kline, error) {
	s.lastKlineInterval = interval
	s.lastKlineLimit = limit
	return append([]domain.Kline(nil), s.klines...), nil
}

func (s *stubMarketData) Symbols(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.symbols...), nil
}

type stubTrading struct {
	balances []domain.Balance
	order    *domain.Order
	orders   []domain.Order

	lastMarket     string
	lastSide       domain.OrderSide
	lastAmount     decimal.Decimal
	lastPrice      decimal.Decimal
	lastActivation decimal.Decimal
	lastOrderID    int64
	lastLimit      int
	lastOffset     int
}

func (s *stubTrading) TradingBalance(ctx context.Context) ([]domain.Balance, error) {
	return append([]domain.Balance(nil), s.balances...), nil
}

func (s *stubTrading) NewLimitOrder(ctx context.Context, market string, side domain.OrderSide, amount, price decimal.Decimal) (*domain.Order, error) {
	s.lastMarket = market
	s.lastSide = side
	s.lastAmount = amount
	s.lastPrice = price
	return s.order, nil
}

func (s *stubTrading) NewStopLimitOrder(ctx context.Context, market string, side domain.OrderSide, amount, price, activationPrice decimal.Decimal) (*domain.Order, error) {
	s.lastMarket = market
	s.lastSide = side
	s.lastAmount = amount
	s.lastPrice = price
	s.lastActivation = activationPrice
	return s.order, nil
}

func (s *stubTrading) CancelOrder(ctx context.Context, market string, orderID int64) (*domain.Order, error) {
	s.lastMarket = market
	s.lastOrderID = orderID
	return s.order, nil
}

func (s *stubTrading) ActiveOrders(ctx context.Context, market string, limit, offset int) ([]domain.Order, error) {
	s.lastMarket = market
	s.lastLimit = limit
	s.lastOffset = offset
	return append([]domain.Order(nil), s.orders...), nil
}

type stubStream struct {
	lastPrice *domain.LastPrice
	depth     *domain.MarketDepth

	lastDepthMarket string
	lastDepthLimit  int
}

func (s *stubStream) LastPrice(ctx context.Context, market string) (*domain.LastPrice, error) {
	return s.lastPrice, nil
}

func (s *stubStream) Depth(ctx context.Context, market string, limit int) (*domain.MarketDepth, error) {
	s.lastDepthMarket = market
	s.lastDepthLimit = limit
	return s.depth, nil
}

func newStubMarketData() *stubMarketData {
	return &stubMarketData{
		serverTime: &domain.ServerTime{Time: 1737000000},
		status:     &domain.ServerStatus{Status: "active"},
		markets: []domain.Market{
			{
				Name: "BTC_USDT", Stock: "BTC", Money: "USDT",
				StockPrec: "6", MoneyPrec: "2", FeePrec: "4",
				MakerFee: "0.001", TakerFee: "0.001",
				MinAmount: "0.0001", MinTotal: "5", TradesEnabled: true,
			},
			{
				Name: "ETH_BTC", Stock: "ETH", Money: "BTC",
				StockPrec: "5", MoneyPrec: "6", FeePrec: "4",
				MakerFee: "0.001", TakerFee: "0.001",
				MinAmount: "0.001", MinTotal: "0.0001", TradesEnabled: true,
			},
		},
		activity: map[string]domain.MarketActivity{
			"BTC_USDT": {LastPrice: "40000", QuoteVolume: "12000000", BaseVolume: "300", Change: "1.5"},
		},
		assets: map[string]domain.Asset{
			"BTC": {
				Name: "Bitcoin", CanWithdraw: true, CanDeposit: true,
				MinWithdraw: "0.001", MaxWithdraw: "10",
				Networks: &domain.AssetNetworks{Deposits: []string{"BTC"}, Withdraws: []string{"BTC"}, Default: "BTC"},
			},
			"USDT": {
				Name: "Tether", CanWithdraw: true, CanDeposit: true,
				MinWithdraw: "10",
				Networks:    &domain.AssetNetworks{Deposits: []string{"ERC20", "TRC20"}, Withdraws: []string{"ERC20", "TRC20"}, Default: "ERC20"},
			},
		},
		orderbook: &domain.OrderbookSnapshot{
			Timestamp: 1737000000.123,
			Asks:      [][]string{{"40100", "0.5"}},
			Bids:      [][]string{{"39900", "0.7"}},
		},
		trades: []domain.Trade{
			{TradeID: 102, Price: "40010", BaseVolume: "0.2", QuoteVolume: "8002", TradeTime: 1737000010, Type: "sell"},
			{TradeID: 101, Price: "40000", BaseVolume: "0.1", QuoteVolume: "4000", TradeTime: 1737000000, Type: "buy"},
		},
		ticker: &domain.Ticker{
			Bid: "39990", Ask: "40010", High: "41000", Low: "39000",
			Last: "40000", Volume: "1200", Deal: "48000000", Change: "1.2",
		},
		fee: &domain.FeeSchedule{
			Market: "BTC_USDT", Maker: "0.001", Taker: "0.001",
			MinAmount: "0.0001", MinTotal: "5",
		},
		klines: []domain.Kline{
			{Timestamp: 1737000000, Open: "40000", Close: "40100", High: "40200", Low: "39900", Volume: "12", Amount: "481200"},
		},
		symbols: []string{"BTC_USDT", "ETH_BTC"},
	}
}

func testServer() (*sdkmcp.Server, *stubMarketData, *stubTrading, *stubStream) {
	market := newStubMarketData()
	trading := &stubTrading{
		balances: []domain.Balance{
			{Currency: "BTC", Available: "0.5", Freeze: "0"},
			{Currency: "USDT", Available: "1000", Freeze: "50"},
		},
		order: &domain.Order{
			OrderID: 4180284841, Market: "BTC_USDT", Side: "buy", Type: "limit",
			Amount: "0.001", Price: "40000", Left: "0.001",
			DealMoney: "0", DealStock: "0", DealFee: "0",
			TakerFee: "0.001", MakerFee: "0.001",
		},
		orders: []domain.Order{
			{OrderID: 4180284841, Market: "BTC_USDT", Side: "buy", Type: "limit", Amount: "0.001", Price: "40000"},
		},
	}
	stream := &stubStream{
		lastPrice: &domain.LastPrice{Market: "BTC_USDT", Price: "40123.5"},
		depth: &domain.MarketDepth{
			Market: "BTC_USDT",
			Asks:   [][]string{{"40100", "0.5"}},
			Bids:   [][]string{{"39900", "0.7"}},
		},
	}

	srv := NewServer(nil, market, trading, stream, ServerConfig{RequestTimeout: time.Second})
	return srv, market, trading, stream
}

func publicOnlyServer() *sdkmcp.Server {
	return NewServer(nil, newStubMarketData(), nil, nil, ServerConfig{RequestTimeout: time.Second})
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

func decodeToolJSON(result *sdkmcp.CallToolResult, out any) error {
	for _, content := range result.Content {
		if text, ok := content.(*sdkmcp.TextContent); ok {
			return json.Unmarshal([]byte(text.Text), out)
		}
	}
	return fmt.Errorf("no text content in tool result")
}

func toolNames(tools *sdkmcp.ListToolsResult) map[string]bool {
	names := make(map[string]bool, len(tools.Tools))
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	return names
}
