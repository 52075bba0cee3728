package whitebit

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"whitebit-mcp/internal/domain"
)

// TradingBalance returns the spot balances of the authenticated account,
// sorted by currency. Zero balances are included; WhiteBit reports every
// asset the account has ever touched.
func (c *Client) TradingBalance(ctx context.Context) ([]domain.Balance, error) {
	var raw map[string]struct {
		Available string `json:"available"`
		Freeze    string `json:"freeze"`
	}
	if err := c.postSigned(ctx, "/api/v4/trade-account/balance", nil, &raw); err != nil {
		return nil, err
	}

	out := make([]domain.Balance, 0, len(raw))
	for currency, b := range raw {
		out = append(out, domain.Balance{
			Currency:  currency,
			Available: b.Available,
			Freeze:    b.Freeze,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

// NewLimitOrder places a limit order and returns the exchange's view of it.
func (c *Client) NewLimitOrder(ctx context.Context, market string, side domain.OrderSide, amount, price decimal.Decimal) (*domain.Order, error) {
	params := map[string]any{
		"market": market,
		"side":   string(side),
		"amount": amount.String(),
		"price":  price.String(),
	}

	var order domain.Order
	if err := c.postSigned(ctx, "/api/v4/order/new", params, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// NewStopLimitOrder places a stop-limit order that activates at
// activationPrice and then rests at price.
func (c *Client) NewStopLimitOrder(ctx context.Context, market string, side domain.OrderSide, amount, price, activationPrice decimal.Decimal) (*domain.Order, error) {
	params := map[string]any{
		"market":           market,
		"side":             string(side),
		"amount":           amount.String(),
		"price":            price.String(),
		"activation_price": activationPrice.String(),
	}

	var order domain.Order
	if err := c.postSigned(ctx, "/api/v4/order/stop_limit", params, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder cancels an open order on a market and returns its final state.
func (c *Client) CancelOrder(ctx context.Context, market string, orderID int64) (*domain.Order, error) {
	params := map[string]any{
		"market":  market,
		"orderId": orderID,
	}

	var order domain.Order
	if err := c.postSigned(ctx, "/api/v4/order/cancel", params, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ActiveOrders lists unexecuted orders, optionally filtered to one market.
// limit and offset page through the result when positive.
func (c *Client) ActiveOrders(ctx context.Context, market string, limit, offset int) ([]domain.Order, error) {
	params := map[string]any{}
	if market != "" {
		params["market"] = market
	}
	if limit > 0 {
		params["limit"] = limit
	}
	if offset > 0 {
		params["offset"] = offset
	}

	var orders []domain.Order
	if err := c.postSigned(ctx, "/api/v4/orders", params, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
