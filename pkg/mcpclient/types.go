package mcpclient

// The types below mirror the JSON the WhiteBit MCP server emits. Decimal
// values stay strings so exchange precision survives the round trip.

// Market describes one trading pair.
type Market struct {
	Name          string `json:"name"`
	Stock         string `json:"stock"`
	Money         string `json:"money"`
	StockPrec     string `json:"stockPrec"`
	MoneyPrec     string `json:"moneyPrec"`
	FeePrec       string `json:"feePrec"`
	MakerFee      string `json:"makerFee"`
	TakerFee      string `json:"takerFee"`
	MinAmount     string `json:"minAmount"`
	MinTotal      string `json:"minTotal"`
	MaxTotal      string `json:"maxTotal,omitempty"`
	TradesEnabled bool   `json:"tradesEnabled"`
	IsCollateral  bool   `json:"isCollateral,omitempty"`
	Type          string `json:"type,omitempty"`
}

// MarketActivity is one entry of the all-markets activity map.
type MarketActivity struct {
	BaseID      int64  `json:"base_id"`
	QuoteID     int64  `json:"quote_id"`
	LastPrice   string `json:"last_price"`
	QuoteVolume string `json:"quote_volume"`
	BaseVolume  string `json:"base_volume"`
	IsFrozen    bool   `json:"isFrozen"`
	Change      string `json:"change"`
}

// Ticker is the single-market ticker payload.
type Ticker struct {
	Bid    string `json:"bid"`
	Ask    string `json:"ask"`
	Open   string `json:"open,omitempty"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Last   string `json:"last"`
	Volume string `json:"volume"`
	Deal   string `json:"deal"`
	Change string `json:"change"`
}

// OrderbookSnapshot holds one orderbook read. Price levels are
// [price, amount] string pairs.
type OrderbookSnapshot struct {
	Timestamp float64    `json:"timestamp"`
	Asks      [][]string `json:"asks"`
	Bids      [][]string `json:"bids"`
}

// Trade is one public trade.
type Trade struct {
	TradeID     int64  `json:"tradeID"`
	Price       string `json:"price"`
	QuoteVolume string `json:"quote_volume"`
	BaseVolume  string `json:"base_volume"`
	TradeTime   int64  `json:"trade_timestamp"`
	Type        string `json:"type"`
}

// Asset is one entry of the assets map.
type Asset struct {
	Name                 string           `json:"name"`
	UnifiedCryptoassetID int64            `json:"unified_cryptoasset_id,omitempty"`
	CanWithdraw          bool             `json:"can_withdraw"`
	CanDeposit           bool             `json:"can_deposit"`
	MinWithdraw          string           `json:"min_withdraw,omitempty"`
	MaxWithdraw          string           `json:"max_withdraw,omitempty"`
	MakerFee             string           `json:"maker_fee,omitempty"`
	TakerFee             string           `json:"taker_fee,omitempty"`
	MinDeposit           string           `json:"min_deposit,omitempty"`
	MaxDeposit           string           `json:"max_deposit,omitempty"`
	Networks             *AssetNetworks   `json:"networks,omitempty"`
	Confirmations        map[string]int64 `json:"confirmations,omitempty"`
}

type AssetNetworks struct {
	Deposits  []string `json:"deposits,omitempty"`
	Withdraws []string `json:"withdraws,omitempty"`
	Default   string   `json:"default,omitempty"`
}

// FeeSchedule is the per-market trading fee view.
type FeeSchedule struct {
	Market    string `json:"market"`
	Maker     string `json:"maker"`
	Taker     string `json:"taker"`
	MinAmount string `json:"min_amount,omitempty"`
	MinTotal  string `json:"min_total,omitempty"`
	MaxTotal  string `json:"max_total,omitempty"`
}

// Kline is one candle.
type Kline struct {
	Timestamp int64  `json:"timestamp"`
	Open      string `json:"open"`
	Close     string `json:"close"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Volume    string `json:"volume"`
	Amount    string `json:"amount"`
}

// Balance is one trade-account balance entry.
type Balance struct {
	Currency  string `json:"currency"`
	Available string `json:"available"`
	Freeze    string `json:"freeze"`
}

// Order is the exchange view of a placed, cancelled, or listed order.
type Order struct {
	OrderID         int64   `json:"orderId"`
	ClientOrderID   string  `json:"clientOrderId,omitempty"`
	Market          string  `json:"market"`
	Side            string  `json:"side"`
	Type            string  `json:"type"`
	Timestamp       float64 `json:"timestamp"`
	DealMoney       string  `json:"dealMoney"`
	DealStock       string  `json:"dealStock"`
	Amount          string  `json:"amount"`
	TakerFee        string  `json:"takerFee"`
	MakerFee        string  `json:"makerFee"`
	Left            string  `json:"left"`
	DealFee         string  `json:"dealFee"`
	Price           string  `json:"price"`
	ActivationPrice string  `json:"activation_price,omitempty"`
}

// LastPrice is the websocket last-price answer for one market.
type LastPrice struct {
	Market string `json:"market"`
	Price  string `json:"price"`
}

// MarketDepth is the websocket depth answer for one market.
type MarketDepth struct {
	Market string     `json:"market"`
	Asks   [][]string `json:"asks"`
	Bids   [][]string `json:"bids"`
}

type serverTimeResult struct {
	Time int64 `json:"time"`
}

type serverStatusResult struct {
	Status string `json:"status"`
}

type marketInfoResult struct {
	Markets []Market `json:"markets"`
}

type marketResult struct {
	Market *Market `json:"market"`
}

type marketActivityResult struct {
	Activity map[string]MarketActivity `json:"activity"`
}

type assetStatusListResult struct {
	Assets []Asset `json:"assets"`
}

type assetsResult struct {
	Assets map[string]Asset `json:"assets"`
}

type assetResult struct {
	Asset *Asset `json:"asset"`
}

type orderbookResult struct {
	Market    string             `json:"market"`
	Orderbook *OrderbookSnapshot `json:"orderbook"`
}

type recentTradesResult struct {
	Market string  `json:"market"`
	Trades []Trade `json:"trades"`
}

type tickerResult struct {
	Market string  `json:"market"`
	Ticker *Ticker `json:"ticker"`
}

type feeResult struct {
	Fee *FeeSchedule `json:"fee"`
}

type klineResult struct {
	Market   string  `json:"market"`
	Interval string  `json:"interval"`
	Klines   []Kline `json:"klines"`
}

type symbolsResult struct {
	Symbols []string `json:"symbols"`
}

type tradingBalanceResult struct {
	Balances []Balance `json:"balances"`
}

type orderResult struct {
	Order *Order `json:"order"`
}

type activeOrdersResult struct {
	Orders []Order `json:"orders"`
}

type lastPriceResult struct {
	LastPrice *LastPrice `json:"last_price"`
}

type marketDepthResult struct {
	Depth *MarketDepth `json:"depth"`
}
