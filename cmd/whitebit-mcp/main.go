package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"whitebit-mcp/internal/cache"
	"whitebit-mcp/internal/config"
	"whitebit-mcp/internal/handler"
	mcpserver "whitebit-mcp/internal/mcp"
	"whitebit-mcp/internal/monitoring"
	"whitebit-mcp/internal/proxy"
	"whitebit-mcp/internal/whitebit"
	"whitebit-mcp/pkg/tracing"

	_ "whitebit-mcp/docs"
)

const defaultMCPHTTPMaxBodyBytes int64 = 1 << 20 // 1MiB

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer

	newExchangeClientFunc = whitebit.NewClient
	newWSClientFunc       = whitebit.NewWSClient
	dialRedisFunc         = cache.DialRedis
	newPublicProxyFunc    = proxy.NewPublic
	newMCPServerFunc      = mcpserver.NewServer
	newHTTPHandlerFunc    = mcpserver.NewHTTPTransportHandler
	newSSEHandlerFunc     = mcpserver.NewSSETransportHandler

	runStdioFunc = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

// @title           WhiteBit MCP Monitor API
// @version         1.0
// @description     Monitoring surface for the WhiteBit MCP server: health, metrics, circuit breakers, rate limits, and caches.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()
	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("parse flags: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	clientOpts := []whitebit.Option{
		whitebit.WithBaseURL(cfg.WhitebitBaseURL),
		whitebit.WithTimeout(time.Duration(cfg.HTTPTimeoutSecs) * time.Second),
		whitebit.WithRetries(cfg.HTTPRetries),
	}
	if cfg.HasCredentials() {
		clientOpts = append(clientOpts, whitebit.WithCredentials(cfg.WhitebitAPIKey, cfg.WhitebitAPISecret))
	}
	exchange := newExchangeClientFunc(clientOpts...)

	var redisClient *redis.Client
	proxyOpts := []proxy.PublicOption{}
	if cfg.CacheBackend == "redis" {
		redisClient, err = dialRedisFunc(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		proxyOpts = append(proxyOpts, proxy.WithRedis(redisClient))
	}
	pub := newPublicProxyFunc(tracer, exchange, proxyOpts...)

	wsClient := newWSClientFunc(whitebit.WithWSURL(cfg.WhitebitWSURL))
	defer wsClient.Close()

	var trading mcpserver.TradingProvider
	if cfg.HasCredentials() {
		trading = exchange
	}

	mcpSrv := newMCPServerFunc(tracer, pub, trading, wsClient, mcpserver.ServerConfig{
		Name:           cfg.ServerName,
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
	})

	if cfg.MonitorEnabled {
		monitorSrv := startMonitor(cfg, tracer, exchange, wsClient, redisClient, pub)
		defer stopMonitor(monitorSrv)
	}

	transport := strings.ToLower(strings.TrimSpace(cfg.MCPTransport))
	switch transport {
	case "", "stdio":
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			log.Fatalf("mcp stdio server failed: %v", err)
		}
	case "sse", "http":
		if err := runNetworkMode(ctx, cancel, cfg, transport, mcpSrv); err != nil {
			log.Fatalf("mcp %s server failed: %v", transport, err)
		}
	default:
		log.Fatalf("unsupported MCP transport: %s", transport)
	}
}

func parseFlags(cfg *config.Config, args []string) error {
	fs := pflag.NewFlagSet("whitebit-mcp", pflag.ContinueOnError)
	name := fs.String("name", cfg.ServerName, "MCP server display name")
	transport := fs.String("transport", cfg.MCPTransport, "MCP transport: stdio, sse, or http")
	host := fs.String("host", cfg.MCPHost, "bind host for the sse and http transports")
	port := fs.Int("port", cfg.MCPPort, "bind port for the sse and http transports")
	apiKey := fs.String("api-key", cfg.WhitebitAPIKey, "WhiteBit API key (env WHITEBIT_API_KEY)")
	apiSecret := fs.String("api-secret", cfg.WhitebitAPISecret, "WhiteBit API secret (env WHITEBIT_API_SECRET)")
	web := fs.Bool("web", cfg.MonitorEnabled, "serve the monitoring web surface")
	webHost := fs.String("web-host", cfg.MonitorBind, "bind host for the monitoring surface")
	webPort := fs.Int("web-port", cfg.MonitorPort, "bind port for the monitoring surface")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.ServerName = strings.TrimSpace(*name)
	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(*transport))
	cfg.MCPHost = strings.TrimSpace(*host)
	cfg.MCPPort = *port
	cfg.WhitebitAPIKey = strings.TrimSpace(*apiKey)
	cfg.WhitebitAPISecret = strings.TrimSpace(*apiSecret)
	cfg.MonitorEnabled = *web
	cfg.MonitorBind = strings.TrimSpace(*webHost)
	cfg.MonitorPort = *webPort
	return nil
}

func startMonitor(cfg *config.Config, tracer trace.Tracer, exchange *whitebit.Client, wsClient *whitebit.WSClient, redisClient *redis.Client, pub *proxy.Public) *http.Server {
	health := monitoring.NewHealth()
	health.Register("exchange", func(ctx context.Context) error {
		_, err := exchange.Ping(ctx)
		return err
	})
	health.Register("websocket", func(ctx context.Context) error {
		return wsClient.Ping(ctx)
	})
	if redisClient != nil {
		health.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	h := handler.New(tracer, pub.Metrics(), pub.Breakers(), pub.Limiter(), pub.Caches(), health)

	// The stdio transport owns stdout, so gin logs go to stderr.
	r := gin.New()
	r.Use(gin.LoggerWithWriter(os.Stderr), gin.Recovery())
	r.Use(otelgin.Middleware("whitebit-mcp"))
	r.Use(cors.Default())
	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.MonitorBind, fmt.Sprintf("%d", cfg.MonitorPort)),
		Handler: r,
	}
	go func() {
		log.Printf("monitor server listening on %s", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Printf("monitor server failed: %v", err)
		}
	}()
	return srv
}

func stopMonitor(srv *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		log.Printf("monitor server forced to shutdown: %v", err)
	}
}

func runNetworkMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, transport string, mcpSrv *sdkmcp.Server) error {
	if cfg.MCPPort <= 0 || cfg.MCPPort > 65535 {
		return fmt.Errorf("invalid MCP port: %d", cfg.MCPPort)
	}
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		log.Printf("Warning: MCP_AUTH_TOKEN not set, the %s transport accepts unauthenticated clients", transport)
	}

	handlerCfg := mcpserver.HTTPHandlerConfig{
		AuthToken:       cfg.MCPAuthToken,
		RateLimitPerMin: cfg.MCPRateLimitPerMin,
		MaxBodyBytes:    defaultMCPHTTPMaxBodyBytes,
	}
	var mcpHandler http.Handler
	if transport == "sse" {
		mcpHandler = newSSEHandlerFunc(mcpSrv, handlerCfg)
	} else {
		mcpHandler = newHTTPHandlerFunc(mcpSrv, handlerCfg)
	}

	addr := net.JoinHostPort(cfg.MCPHost, fmt.Sprintf("%d", cfg.MCPPort))
	srv := &http.Server{Addr: addr, Handler: mcpHandler}

	go func() {
		log.Printf("mcp %s server listening on %s", transport, addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Printf("mcp %s server failed: %v", transport, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}
