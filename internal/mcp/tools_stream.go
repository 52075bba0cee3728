package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerStreamTools(server *mcp.Server, stream StreamProvider) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_last_price",
		Description: "Get the latest trade price for a market over the exchange websocket",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in lastPriceInput) (*mcp.CallToolResult, lastPriceOutput, error) {
		name, err := normalizeMarket(in.Market)
		if err != nil {
			return nil, lastPriceOutput{}, err
		}
		price, err := stream.LastPrice(ctx, name)
		if err != nil {
			return nil, lastPriceOutput{}, err
		}
		return nil, lastPriceOutput{LastPrice: price}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_market_depth",
		Description: "Get an order book depth snapshot for a market over the exchange websocket",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in marketDepthInput) (*mcp.CallToolResult, marketDepthOutput, error) {
		name, err := normalizeMarket(in.Market)
		if err != nil {
			return nil, marketDepthOutput{}, err
		}
		limit := normalizeDepthLimit(in.Limit)

		depth, err := stream.Depth(ctx, name, limit)
		if err != nil {
			return nil, marketDepthOutput{}, err
		}
		return nil, marketDepthOutput{Depth: depth}, nil
	})
}
