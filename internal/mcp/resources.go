package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"whitebit-mcp/internal/domain"
)

func registerResources(server *mcp.Server, market MarketDataProvider) {
	server.AddResource(&mcp.Resource{
		URI:         "whitebit://markets",
		Name:        "markets",
		Description: "Configuration for all WhiteBit markets: precision, fees, and trade limits",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if market == nil {
			return nil, fmt.Errorf("market data unavailable")
		}
		markets, err := market.MarketInfo(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, marketInfoOutput{Markets: markets})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "whitebit://markets/{market}",
		Name:        "market-by-name",
		Description: "Configuration for a single WhiteBit market",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if market == nil {
			return nil, fmt.Errorf("market data unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "whitebit" || parsed.Host != "markets" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		name, err := normalizeMarket(strings.Trim(strings.TrimSpace(parsed.Path), "/"))
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		m, err := market.MarketByName(ctx, name)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, mcp.ResourceNotFoundError(req.Params.URI)
			}
			return nil, err
		}
		return jsonResource(req.Params.URI, marketOutput{Market: m})
	})

	server.AddResource(&mcp.Resource{
		URI:         "whitebit://assets",
		Name:        "assets",
		Description: "All WhiteBit assets keyed by ticker, including network details",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if market == nil {
			return nil, fmt.Errorf("market data unavailable")
		}
		assets, err := market.Assets(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, assetsOutput{Assets: assets})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "whitebit://assets/{asset}",
		Name:        "asset-by-ticker",
		Description: "Deposit and withdrawal status for a single WhiteBit asset",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if market == nil {
			return nil, fmt.Errorf("market data unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "whitebit" || parsed.Host != "assets" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		name := strings.ToUpper(strings.Trim(strings.TrimSpace(parsed.Path), "/"))
		if name == "" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		asset, err := market.AssetStatus(ctx, name)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, mcp.ResourceNotFoundError(req.Params.URI)
			}
			return nil, err
		}
		return jsonResource(req.Params.URI, assetOutput{Asset: asset})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
