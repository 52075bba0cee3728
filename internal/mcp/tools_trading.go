package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTradingTools(server *mcp.Server, trading TradingProvider) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_trading_balance",
		Description: "Get spot trading balances for the configured account",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ tradingBalanceInput) (*mcp.CallToolResult, tradingBalanceOutput, error) {
		balances, err := trading.TradingBalance(ctx)
		if err != nil {
			return nil, tradingBalanceOutput{}, err
		}
		return nil, tradingBalanceOutput{Balances: balances}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_limit_order",
		Description: "Place a limit order on a market",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in limitOrderInput) (*mcp.CallToolResult, orderOutput, error) {
		name, err := normalizeMarket(in.Market)
		if err != nil {
			return nil, orderOutput{}, err
		}
		side, err := normalizeSide(in.Side)
		if err != nil {
			return nil, orderOutput{}, err
		}
		amount, err := positiveDecimal("amount", in.Amount)
		if err != nil {
			return nil, orderOutput{}, err
		}
		price, err := positiveDecimal("price", in.Price)
		if err != nil {
			return nil, orderOutput{}, err
		}

		order, err := trading.NewLimitOrder(ctx, name, side, amount, price)
		if err != nil {
			return nil, orderOutput{}, err
		}
		return nil, orderOutput{Order: order}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_stop_limit_order",
		Description: "Place a stop-limit order that activates at a trigger price",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in stopLimitOrderInput) (*mcp.CallToolResult, orderOutput, error) {
		name, err := normalizeMarket(in.Market)
		if err != nil {
			return nil, orderOutput{}, err
		}
		side, err := normalizeSide(in.Side)
		if err != nil {
			return nil, orderOutput{}, err
		}
		amount, err := positiveDecimal("amount", in.Amount)
		if err != nil {
			return nil, orderOutput{}, err
		}
		price, err := positiveDecimal("price", in.Price)
		if err != nil {
			return nil, orderOutput{}, err
		}
		activation, err := positiveDecimal("activation_price", in.ActivationPrice)
		if err != nil {
			return nil, orderOutput{}, err
		}

		order, err := trading.NewStopLimitOrder(ctx, name, side, amount, price, activation)
		if err != nil {
			return nil, orderOutput{}, err
		}
		return nil, orderOutput{Order: order}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "active_orders",
		Description: "List the account's open orders, optionally filtered by market",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in activeOrdersInput) (*mcp.CallToolResult, activeOrdersOutput, error) {
		name := ""
		if in.Market != "" {
			var err error
			name, err = normalizeMarket(in.Market)
			if err != nil {
				return nil, activeOrdersOutput{}, err
			}
		}

		orders, err := trading.ActiveOrders(ctx, name, in.Limit, in.Offset)
		if err != nil {
			return nil, activeOrdersOutput{}, err
		}
		return nil, activeOrdersOutput{Orders: orders}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancel_order",
		Description: "Cancel an open order by id",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in cancelOrderInput) (*mcp.CallToolResult, orderOutput, error) {
		name, err := normalizeMarket(in.Market)
		if err != nil {
			return nil, orderOutput{}, err
		}
		orderID, err := normalizeOrderID(in.OrderID)
		if err != nil {
			return nil, orderOutput{}, err
		}

		order, err := trading.CancelOrder(ctx, name, orderID)
		if err != nil {
			return nil, orderOutput{}, err
		}
		return nil, orderOutput{Order: order}, nil
	})
}
