package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound marks lookups for markets or assets the exchange does not
// list.
var ErrNotFound = errors.New("not found")

// Market describes one trading pair as returned by /api/v4/public/markets.
// Decimal values stay strings so upstream precision survives pass-through.
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

// MarketActivity is one entry of the /api/v4/public/ticker map.
type MarketActivity struct {
	BaseID      int64  `json:"base_id"`
	QuoteID     int64  `json:"quote_id"`
	LastPrice   string `json:"last_price"`
	QuoteVolume string `json:"quote_volume"`
	BaseVolume  string `json:"base_volume"`
	IsFrozen    bool   `json:"isFrozen"`
	Change      string `json:"change"`
}

// Ticker is the v1 single-market ticker payload.
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

// UnmarshalJSON accepts both volume spellings: the single-ticker endpoint
// sends "volume", the all-tickers endpoint sends "vol".
func (t *Ticker) UnmarshalJSON(data []byte) error {
	type alias Ticker
	aux := struct {
		*alias
		Vol string `json:"vol"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.Volume == "" && aux.Vol != "" {
		t.Volume = aux.Vol
	}
	return nil
}

// TickerEntry is one entry of the v1 all-markets tickers map.
type TickerEntry struct {
	At     int64  `json:"at"`
	Ticker Ticker `json:"ticker"`
}

// OrderbookSnapshot mirrors /api/v4/public/orderbook/{market}. Price levels
// are [price, amount] string pairs.
type OrderbookSnapshot struct {
	Timestamp float64    `json:"timestamp"`
	Asks      [][]string `json:"asks"`
	Bids      [][]string `json:"bids"`
}

// Trade is one entry of /api/v4/public/trades/{market}.
type Trade struct {
	TradeID     int64  `json:"tradeID"`
	Price       string `json:"price"`
	QuoteVolume string `json:"quote_volume"`
	BaseVolume  string `json:"base_volume"`
	TradeTime   int64  `json:"trade_timestamp"`
	Type        string `json:"type"`
}

// Asset is one entry of the /api/v4/public/assets map.
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

// FeeSchedule is the per-market trading fee view, resolved from market info.
type FeeSchedule struct {
	Market    string `json:"market"`
	Maker     string `json:"maker"`
	Taker     string `json:"taker"`
	MinAmount string `json:"min_amount,omitempty"`
	MinTotal  string `json:"min_total,omitempty"`
	MaxTotal  string `json:"max_total,omitempty"`
}

// Kline is one candle from /api/v1/public/kline. The upstream encodes each
// row as a 7-element array: [timestamp, open, close, high, low, volume, amount].
type Kline struct {
	Timestamp int64  `json:"timestamp"`
	Open      string `json:"open"`
	Close     string `json:"close"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Volume    string `json:"volume"`
	Amount    string `json:"amount"`
}

func (k *Kline) UnmarshalJSON(data []byte) error {
	var row []json.RawMessage
	if err := json.Unmarshal(data, &row); err != nil {
		return fmt.Errorf("kline row: %w", err)
	}
	if len(row) < 7 {
		return fmt.Errorf("kline row has %d elements, want 7", len(row))
	}
	if err := json.Unmarshal(row[0], &k.Timestamp); err != nil {
		return fmt.Errorf("kline timestamp: %w", err)
	}
	fields := []*string{&k.Open, &k.Close, &k.High, &k.Low, &k.Volume, &k.Amount}
	for i, dst := range fields {
		if err := json.Unmarshal(row[i+1], dst); err != nil {
			return fmt.Errorf("kline field %d: %w", i+1, err)
		}
	}
	return nil
}

type ServerTime struct {
	Time int64 `json:"time"`
}

type ServerStatus struct {
	Status string `json:"status"`
}

// Balance is one trade-account balance entry.
type Balance struct {
	Currency  string `json:"currency"`
	Available string `json:"available"`
	Freeze    string `json:"freeze"`
}

type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

func (s OrderSide) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// Order is the shape WhiteBit returns from order/new, order/stop_limit,
// order/cancel, and the /orders listing.
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

// LastPrice is the websocket lastprice_request answer for one market.
type LastPrice struct {
	Market string `json:"market"`
	Price  string `json:"price"`
}

// MarketDepth is the websocket depth_request answer for one market.
type MarketDepth struct {
	Market string     `json:"market"`
	Asks   [][]string `json:"asks"`
	Bids   [][]string `json:"bids"`
}

var KlineIntervals = []string{
	"1m", "3m", "5m", "15m", "30m",
	"1h", "2h", "4h", "6h", "8h", "12h",
	"1d", "3d", "1w", "1M",
}

func IsValidKlineInterval(interval string) bool {
	for _, supported := range KlineIntervals {
		if interval == supported {
			return true
		}
	}
	return false
}

// IsMarketName reports whether s looks like a WhiteBit market pair,
// e.g. BTC_USDT. It does not check the pair against the live market list.
func IsMarketName(s string) bool {
	parts := strings.Split(s, "_")
	if len(parts) != 2 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
		for _, r := range part {
			if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
				return false
			}
		}
	}
	return true
}
