// Package proxy fronts the WhiteBit public API with rate limiting,
// response caching, and per-endpoint circuit breakers. Tools and resources
// read market data through it instead of hitting the exchange directly.
package proxy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"whitebit-mcp/internal/breaker"
	"whitebit-mcp/internal/cache"
	"whitebit-mcp/internal/domain"
	"whitebit-mcp/internal/monitoring"
	"whitebit-mcp/internal/ratelimit"
)

// ExchangeClient is the slice of the WhiteBit REST client the proxy needs.
type ExchangeClient interface {
	ServerTime(ctx context.Context) (*domain.ServerTime, error)
	Ping(ctx context.Context) ([]string, error)
	Markets(ctx context.Context) ([]domain.Market, error)
	MarketActivity(ctx context.Context) (map[string]domain.MarketActivity, error)
	Orderbook(ctx context.Context, market string, limit, level int) (*domain.OrderbookSnapshot, error)
	RecentTrades(ctx context.Context, market, tradeType string) ([]domain.Trade, error)
	Assets(ctx context.Context) (map[string]domain.Asset, error)
	Asset(ctx context.Context, name string) (*domain.Asset, error)
	Ticker(ctx context.Context, market string) (*domain.Ticker, error)
	Symbols(ctx context.Context) ([]string, error)
	Klines(ctx context.Context, market, interval string, start, end int64, limit int) ([]domain.Kline, error)
	Fee(ctx context.Context, market string) (*domain.FeeSchedule, error)
}

// Rate limit rule names. Every public call draws from the shared rule;
// book and trade fetches draw from their stricter rules on top.
const (
	RulePublic       = "public"
	RuleOrderbook    = "get_orderbook"
	RuleRecentTrades = "get_recent_trades"
)

// Circuit breaker names, one per guarded upstream endpoint.
const (
	breakerServerTime   = "public_v4_get_server_time"
	breakerServerStatus = "public_v4_get_server_status"
	breakerOrderbook    = "public_v4_get_orderbook"
	breakerRecentTrades = "public_v4_get_recent_trades"
	breakerKline        = "public_v4_get_kline"
)

type cacheSpec struct {
	name    string
	ttl     time.Duration
	persist bool
}

// Persist caches hold slow-moving exchange metadata and move to Redis when
// a redis backend is configured; the rest always stay in memory.
var cacheSpecs = []cacheSpec{
	{"server_time", 10 * time.Second, false},
	{"server_status", time.Minute, false},
	{"market_info", 5 * time.Minute, true},
	{"market_activity", 30 * time.Second, false},
	{"orderbook", 5 * time.Second, false},
	{"recent_trades", 10 * time.Second, false},
	{"fee", time.Hour, true},
	{"asset_status", 30 * time.Minute, true},
	{"kline", time.Minute, false},
	{"ticker", 30 * time.Second, false},
	{"symbols", time.Minute, false},
	{"assets", 5 * time.Minute, false},
}

// DefaultLimiter returns a limiter with the standard public API rules.
func DefaultLimiter() *ratelimit.Limiter {
	l := ratelimit.New()
	l.AddRule(ratelimit.Rule{Name: RulePublic, PerMin: 600, Burst: 100})
	l.AddRule(ratelimit.Rule{Name: RuleOrderbook, PerMin: 120, Burst: 30})
	l.AddRule(ratelimit.Rule{Name: RuleRecentTrades, PerMin: 120, Burst: 30})
	return l
}

// Public is the guarded read path for public market data.
type Public struct {
	tracer   trace.Tracer
	client   ExchangeClient
	limiter  *ratelimit.Limiter
	breakers *breaker.Registry
	caches   *cache.Registry
	stores   map[string]cache.Store
	metrics  *monitoring.Metrics
}

type PublicOption func(*publicConfig)

type publicConfig struct {
	redis   *redis.Client
	limiter *ratelimit.Limiter
	metrics *monitoring.Metrics
}

// WithRedis moves the persist caches onto Redis.
func WithRedis(client *redis.Client) PublicOption {
	return func(cfg *publicConfig) { cfg.redis = client }
}

func WithLimiter(l *ratelimit.Limiter) PublicOption {
	return func(cfg *publicConfig) { cfg.limiter = l }
}

func WithMetrics(m *monitoring.Metrics) PublicOption {
	return func(cfg *publicConfig) { cfg.metrics = m }
}

func NewPublic(tracer trace.Tracer, client ExchangeClient, opts ...PublicOption) *Public {
	cfg := publicConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.limiter == nil {
		cfg.limiter = DefaultLimiter()
	}
	if cfg.metrics == nil {
		cfg.metrics = monitoring.NewMetrics()
	}

	p := &Public{
		tracer:   tracer,
		client:   client,
		limiter:  cfg.limiter,
		breakers: breaker.NewRegistry(),
		caches:   cache.NewRegistry(),
		stores:   make(map[string]cache.Store, len(cacheSpecs)),
		metrics:  cfg.metrics,
	}

	for _, spec := range cacheSpecs {
		var store cache.Store
		if spec.persist && cfg.redis != nil {
			store = cache.NewRedisStore(cfg.redis, spec.name, spec.ttl, spec.persist)
		} else {
			store = cache.NewMemoryStore(spec.name, spec.ttl, spec.persist)
		}
		p.stores[spec.name] = store
		p.caches.Register(store)
	}

	for _, name := range []string{
		breakerServerTime, breakerServerStatus, breakerOrderbook,
		breakerRecentTrades, breakerKline,
	} {
		p.breakers.Acquire(name)
	}
	return p
}

// Metrics exposes the request metrics collector for the web surface.
func (p *Public) Metrics() *monitoring.Metrics { return p.metrics }

// Breakers exposes the circuit breaker registry for the web surface.
func (p *Public) Breakers() *breaker.Registry { return p.breakers }

// Limiter exposes the rate limiter for the web surface.
func (p *Public) Limiter() *ratelimit.Limiter { return p.limiter }

// Caches exposes the cache registry for the web surface.
func (p *Public) Caches() *cache.Registry { return p.caches }

func (p *Public) span(ctx context.Context, name string) (context.Context, trace.Span) {
	if p.tracer == nil {
		return ctx, nil
	}
	return p.tracer.Start(ctx, name)
}

func endSpan(span trace.Span) {
	if span != nil {
		span.End()
	}
}

// run sends one operation through the guard chain: rate limit first, then
// cache, then the breaker-wrapped upstream call. Failed calls are never
// cached.
func run[T any](ctx context.Context, p *Public, op string, rules []string, cacheName, key, breakerName string, call func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	v, err := runGuarded(ctx, p, rules, cacheName, key, breakerName, call)
	p.metrics.Observe(op, time.Since(start), err)
	return v, err
}

func runGuarded[T any](ctx context.Context, p *Public, rules []string, cacheName, key, breakerName string, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for _, rule := range rules {
		if !p.limiter.Allow(rule) {
			return zero, fmt.Errorf("rate limit exceeded for %s", rule)
		}
	}

	loader := call
	if breakerName != "" {
		b := p.breakers.Acquire(breakerName)
		loader = func(ctx context.Context) (T, error) {
			var v T
			err := b.Do(ctx, func(ctx context.Context) error {
				var callErr error
				v, callErr = call(ctx)
				return callErr
			})
			return v, err
		}
	}
	return cache.Fetch(ctx, p.stores[cacheName], key, loader)
}

// ServerTime returns the exchange clock.
func (p *Public) ServerTime(ctx context.Context) (*domain.ServerTime, error) {
	ctx, span := p.span(ctx, "public-proxy.get-server-time")
	defer endSpan(span)
	return run(ctx, p, "server_time", []string{RulePublic}, "server_time", "now", breakerServerTime, p.client.ServerTime)
}

// ServerStatus folds the ping endpoint into an availability flag.
func (p *Public) ServerStatus(ctx context.Context) (*domain.ServerStatus, error) {
	ctx, span := p.span(ctx, "public-proxy.get-server-status")
	defer endSpan(span)
	return run(ctx, p, "server_status", []string{RulePublic}, "server_status", "now", breakerServerStatus, func(ctx context.Context) (*domain.ServerStatus, error) {
		if _, err := p.client.Ping(ctx); err != nil {
			return nil, err
		}
		return &domain.ServerStatus{Status: "active"}, nil
	})
}

// MarketInfo returns the configuration of every market.
func (p *Public) MarketInfo(ctx context.Context) ([]domain.Market, error) {
	ctx, span := p.span(ctx, "public-proxy.get-market-info")
	defer endSpan(span)
	return run(ctx, p, "market_info", []string{RulePublic}, "market_info", "all", "", p.client.Markets)
}

// MarketByName returns the configuration of one market from the cached
// market list.
func (p *Public) MarketByName(ctx context.Context, market string) (*domain.Market, error) {
	markets, err := p.MarketInfo(ctx)
	if err != nil {
		return nil, err
	}
	for i := range markets {
		if markets[i].Name == market {
			return &markets[i], nil
		}
	}
	return nil, fmt.Errorf("market %s: %w", market, domain.ErrNotFound)
}

// MarketActivity returns 24h activity for every market.
func (p *Public) MarketActivity(ctx context.Context) (map[string]domain.MarketActivity, error) {
	ctx, span := p.span(ctx, "public-proxy.get-market-activity")
	defer endSpan(span)
	return run(ctx, p, "market_activity", []string{RulePublic}, "market_activity", "all", "", p.client.MarketActivity)
}

// AssetStatusList returns deposit/withdraw status for every asset, sorted
// by asset name.
func (p *Public) AssetStatusList(ctx context.Context) ([]domain.Asset, error) {
	ctx, span := p.span(ctx, "public-proxy.get-asset-status-list")
	defer endSpan(span)
	return run(ctx, p, "asset_status", []string{RulePublic}, "asset_status", "all", "", func(ctx context.Context) ([]domain.Asset, error) {
		assets, err := p.client.Assets(ctx)
		if err != nil {
			return nil, err
		}
		list := make([]domain.Asset, 0, len(assets))
		for name, asset := range assets {
			asset.Name = name
			list = append(list, asset)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		return list, nil
	})
}

// AssetStatus returns the status of one asset.
func (p *Public) AssetStatus(ctx context.Context, name string) (*domain.Asset, error) {
	ctx, span := p.span(ctx, "public-proxy.get-asset-status")
	defer endSpan(span)
	return run(ctx, p, "asset_status", []string{RulePublic}, "asset_status", name, "", func(ctx context.Context) (*domain.Asset, error) {
		return p.client.Asset(ctx, name)
	})
}

// Assets returns the raw asset map keyed by ticker.
func (p *Public) Assets(ctx context.Context) (map[string]domain.Asset, error) {
	ctx, span := p.span(ctx, "public-proxy.get-assets")
	defer endSpan(span)
	return run(ctx, p, "assets", []string{RulePublic}, "assets", "all", "", p.client.Assets)
}

// Orderbook returns the current book for a market.
func (p *Public) Orderbook(ctx context.Context, market string, limit, level int) (*domain.OrderbookSnapshot, error) {
	ctx, span := p.span(ctx, "public-proxy.get-orderbook")
	defer endSpan(span)
	key := fmt.Sprintf("%s|%d|%d", market, limit, level)
	return run(ctx, p, "orderbook", []string{RulePublic, RuleOrderbook}, "orderbook", key, breakerOrderbook, func(ctx context.Context) (*domain.OrderbookSnapshot, error) {
		return p.client.Orderbook(ctx, market, limit, level)
	})
}

// RecentTrades returns the latest trades for a market. The upstream list
// is cached whole; limit trims the returned slice.
func (p *Public) RecentTrades(ctx context.Context, market, tradeType string, limit int) ([]domain.Trade, error) {
	ctx, span := p.span(ctx, "public-proxy.get-recent-trades")
	defer endSpan(span)
	key := market + "|" + tradeType
	trades, err := run(ctx, p, "recent_trades", []string{RulePublic, RuleRecentTrades}, "recent_trades", key, breakerRecentTrades, func(ctx context.Context) ([]domain.Trade, error) {
		return p.client.RecentTrades(ctx, market, tradeType)
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(trades) > limit {
		trades = trades[:limit]
	}
	return trades, nil
}

// Ticker returns the v1 ticker for one market.
func (p *Public) Ticker(ctx context.Context, market string) (*domain.Ticker, error) {
	ctx, span := p.span(ctx, "public-proxy.get-ticker")
	defer endSpan(span)
	return run(ctx, p, "ticker", []string{RulePublic}, "ticker", market, "", func(ctx context.Context) (*domain.Ticker, error) {
		return p.client.Ticker(ctx, market)
	})
}

// Fee returns the fee schedule for one market.
func (p *Public) Fee(ctx context.Context, market string) (*domain.FeeSchedule, error) {
	ctx, span := p.span(ctx, "public-proxy.get-fee")
	defer endSpan(span)
	return run(ctx, p, "fee", []string{RulePublic}, "fee", market, "", func(ctx context.Context) (*domain.FeeSchedule, error) {
		return p.client.Fee(ctx, market)
	})
}

// Klines returns candles for a market.
func (p *Public) Klines(ctx context.Context, market, interval string, start, end int64, limit int) ([]domain.Kline, error) {
	ctx, span := p.span(ctx, "public-proxy.get-kline")
	defer endSpan(span)
	key := fmt.Sprintf("%s|%s|%d|%d|%d", market, interval, start, end, limit)
	return run(ctx, p, "kline", []string{RulePublic}, "kline", key, breakerKline, func(ctx context.Context) ([]domain.Kline, error) {
		return p.client.Klines(ctx, market, interval, start, end, limit)
	})
}

// Symbols returns every market name known to the v1 API.
func (p *Public) Symbols(ctx context.Context) ([]string, error) {
	ctx, span := p.span(ctx, "public-proxy.get-symbols")
	defer endSpan(span)
	return run(ctx, p, "symbols", []string{RulePublic}, "symbols", "all", "", p.client.Symbols)
}
