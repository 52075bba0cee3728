package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"whitebit-mcp/internal/config"
	mcpserver "whitebit-mcp/internal/mcp"
)

func stubDeps(t *testing.T, transport string) (*config.Config, func()) {
	t.Helper()

	cfg := &config.Config{
		ServerName:            "test-mcp",
		WhitebitBaseURL:       "http://127.0.0.1:1",
		WhitebitWSURL:         "ws://127.0.0.1:1/ws",
		HTTPTimeoutSecs:       1,
		HTTPRetries:           0,
		MCPTransport:          transport,
		MCPHost:               "127.0.0.1",
		MCPPort:               8090,
		MCPAuthToken:          "secret",
		MCPRequestTimeoutSecs: 1,
		MCPRateLimitPerMin:    60,
		MonitorBind:           "127.0.0.1",
		MonitorPort:           8091,
		CacheBackend:          "memory",
	}

	origArgs := os.Args
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitTracer := initTracerFunc

	os.Args = []string{"whitebit-mcp"}
	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config { return cfg }
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}

	return cfg, func() {
		os.Args = origArgs
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initTracerFunc = origInitTracer
	}
}

func TestMainStdio(t *testing.T) {
	_, restore := stubDeps(t, "stdio")
	defer restore()

	called := false
	origRunStdio := runStdioFunc
	runStdioFunc = func(ctx context.Context, server *sdkmcp.Server) error {
		called = true
		return nil
	}
	defer func() { runStdioFunc = origRunStdio }()

	main()

	if !called {
		t.Fatal("expected stdio transport to run")
	}
}

func TestMainHTTPTransport(t *testing.T) {
	_, restore := stubDeps(t, "http")
	defer restore()

	httpStarted := false
	handlerBuilt := false
	started := make(chan struct{})

	origNewHTTPHandler := newHTTPHandlerFunc
	origStartHTTP := startHTTPServerFunc
	origNotify := setupSignalNotify
	origWait := waitForSignalFunc
	origShutdown := shutdownHTTPServerFn

	newHTTPHandlerFunc = func(server *sdkmcp.Server, cfg mcpserver.HTTPHandlerConfig) http.Handler {
		handlerBuilt = true
		return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}
	startHTTPServerFunc = func(*http.Server) error {
		httpStarted = true
		close(started)
		return http.ErrServerClosed
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) { <-started }
	shutdownHTTPServerFn = func(*http.Server, context.Context) error { return nil }

	defer func() {
		newHTTPHandlerFunc = origNewHTTPHandler
		startHTTPServerFunc = origStartHTTP
		setupSignalNotify = origNotify
		waitForSignalFunc = origWait
		shutdownHTTPServerFn = origShutdown
	}()

	main()

	if !httpStarted {
		t.Fatal("expected http transport to start")
	}
	if !handlerBuilt {
		t.Fatal("expected the streamable http handler to be built")
	}
}

func TestMainSSETransport(t *testing.T) {
	_, restore := stubDeps(t, "sse")
	defer restore()

	sseBuilt := false
	started := make(chan struct{})

	origNewSSEHandler := newSSEHandlerFunc
	origStartHTTP := startHTTPServerFunc
	origNotify := setupSignalNotify
	origWait := waitForSignalFunc
	origShutdown := shutdownHTTPServerFn

	newSSEHandlerFunc = func(server *sdkmcp.Server, cfg mcpserver.HTTPHandlerConfig) http.Handler {
		sseBuilt = true
		return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}
	startHTTPServerFunc = func(*http.Server) error {
		close(started)
		return http.ErrServerClosed
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) { <-started }
	shutdownHTTPServerFn = func(*http.Server, context.Context) error { return nil }

	defer func() {
		newSSEHandlerFunc = origNewSSEHandler
		startHTTPServerFunc = origStartHTTP
		setupSignalNotify = origNotify
		waitForSignalFunc = origWait
		shutdownHTTPServerFn = origShutdown
	}()

	main()

	if !sseBuilt {
		t.Fatal("expected the sse handler to be built")
	}
}

func TestMainStartsMonitorWhenEnabled(t *testing.T) {
	cfg, restore := stubDeps(t, "stdio")
	defer restore()
	cfg.MonitorEnabled = true

	monitorStarted := make(chan string, 1)

	origRunStdio := runStdioFunc
	origStartHTTP := startHTTPServerFunc
	origShutdown := shutdownHTTPServerFn

	runStdioFunc = func(ctx context.Context, server *sdkmcp.Server) error { return nil }
	startHTTPServerFunc = func(srv *http.Server) error {
		monitorStarted <- srv.Addr
		return http.ErrServerClosed
	}
	shutdownHTTPServerFn = func(*http.Server, context.Context) error { return nil }

	defer func() {
		runStdioFunc = origRunStdio
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFn = origShutdown
	}()

	main()

	select {
	case addr := <-monitorStarted:
		if addr != "127.0.0.1:8091" {
			t.Fatalf("monitor bound to %s", addr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected the monitor server to start")
	}
}

func TestRunNetworkModeRejectsBadPort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &config.Config{MCPHost: "127.0.0.1", MCPPort: 0}
	srv := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "test"}, nil)

	err := runNetworkMode(ctx, cancel, cfg, "http", srv)
	if err == nil {
		t.Fatal("expected an invalid port error")
	}
	if !strings.Contains(err.Error(), "invalid MCP port") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseFlagsOverridesConfig(t *testing.T) {
	cfg := &config.Config{
		ServerName:   "WhiteBit MCP",
		MCPTransport: "stdio",
		MCPHost:      "127.0.0.1",
		MCPPort:      8000,
		MonitorBind:  "127.0.0.1",
		MonitorPort:  8080,
	}

	args := []string{
		"--name", "mcp-dev",
		"--transport", "HTTP",
		"--host", "0.0.0.0",
		"--port", "9001",
		"--api-key", "key",
		"--api-secret", "secret",
		"--web",
		"--web-port", "9090",
	}
	if err := parseFlags(cfg, args); err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if cfg.ServerName != "mcp-dev" {
		t.Fatalf("server name = %q", cfg.ServerName)
	}
	if cfg.MCPTransport != "http" {
		t.Fatalf("transport = %q, want lowercased http", cfg.MCPTransport)
	}
	if cfg.MCPHost != "0.0.0.0" || cfg.MCPPort != 9001 {
		t.Fatalf("bind = %s:%d", cfg.MCPHost, cfg.MCPPort)
	}
	if !cfg.HasCredentials() {
		t.Fatal("expected credentials from flags")
	}
	if !cfg.MonitorEnabled || cfg.MonitorPort != 9090 {
		t.Fatalf("monitor = %v port %d", cfg.MonitorEnabled, cfg.MonitorPort)
	}
	if cfg.MonitorBind != "127.0.0.1" {
		t.Fatalf("monitor bind = %q, want untouched default", cfg.MonitorBind)
	}
}

func TestParseFlagsKeepsEnvDefaults(t *testing.T) {
	cfg := &config.Config{
		ServerName:   "WhiteBit MCP",
		MCPTransport: "sse",
		MCPHost:      "10.0.0.5",
		MCPPort:      8443,
	}

	if err := parseFlags(cfg, nil); err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.MCPTransport != "sse" || cfg.MCPHost != "10.0.0.5" || cfg.MCPPort != 8443 {
		t.Fatalf("defaults changed: %+v", cfg)
	}
}
