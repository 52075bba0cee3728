package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	ServerName string

	WhitebitAPIKey    string
	WhitebitAPISecret string
	WhitebitBaseURL   string
	WhitebitWSURL     string
	HTTPTimeoutSecs   int
	HTTPRetries       int

	MCPTransport          string
	MCPHost               string
	MCPPort               int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	MonitorEnabled bool
	MonitorBind    string
	MonitorPort    int

	CacheBackend string
	RedisURL     string
}

func Load() *Config {
	cfg := &Config{
		WhitebitAPIKey:    os.Getenv("WHITEBIT_API_KEY"),
		WhitebitAPISecret: os.Getenv("WHITEBIT_API_SECRET"),
		MCPAuthToken:      os.Getenv("MCP_AUTH_TOKEN"),
	}

	if cfg.WhitebitAPIKey == "" || cfg.WhitebitAPISecret == "" {
		log.Println("Warning: WHITEBIT_API_KEY/WHITEBIT_API_SECRET not set, private tools will be disabled")
	}

	cfg.ServerName = strings.TrimSpace(os.Getenv("MCP_SERVER_NAME"))
	if cfg.ServerName == "" {
		cfg.ServerName = "WhiteBit MCP"
	}

	cfg.WhitebitBaseURL = strings.TrimSpace(os.Getenv("WHITEBIT_BASE_URL"))
	if cfg.WhitebitBaseURL == "" {
		cfg.WhitebitBaseURL = "https://whitebit.com"
	}

	cfg.WhitebitWSURL = strings.TrimSpace(os.Getenv("WHITEBIT_WS_URL"))
	if cfg.WhitebitWSURL == "" {
		cfg.WhitebitWSURL = "wss://api.whitebit.com/ws"
	}

	cfg.HTTPTimeoutSecs = 10
	if v := strings.TrimSpace(os.Getenv("WHITEBIT_HTTP_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeoutSecs = n
		}
	}

	cfg.HTTPRetries = 3
	if v := strings.TrimSpace(os.Getenv("WHITEBIT_HTTP_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.HTTPRetries = n
		}
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "sse" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHost = strings.TrimSpace(os.Getenv("MCP_HOST"))
	if cfg.MCPHost == "" {
		cfg.MCPHost = "127.0.0.1"
	}

	cfg.MCPPort = 8000
	if v := strings.TrimSpace(os.Getenv("MCP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPPort = n
		}
	}

	cfg.MCPRequestTimeoutSecs = 5
	if v := strings.TrimSpace(os.Getenv("MCP_REQUEST_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRequestTimeoutSecs = n
		}
	}

	cfg.MCPRateLimitPerMin = 60
	if v := strings.TrimSpace(os.Getenv("MCP_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRateLimitPerMin = n
		}
	}

	cfg.MonitorEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MONITOR_ENABLED")), "true")

	cfg.MonitorBind = strings.TrimSpace(os.Getenv("MONITOR_BIND"))
	if cfg.MonitorBind == "" {
		cfg.MonitorBind = "127.0.0.1"
	}

	cfg.MonitorPort = 8080
	if v := strings.TrimSpace(os.Getenv("MONITOR_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MonitorPort = n
		}
	}

	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "memory"
	}
	if cfg.CacheBackend != "memory" && cfg.CacheBackend != "redis" {
		log.Printf("Warning: unsupported CACHE_BACKEND=%q, defaulting to memory", cfg.CacheBackend)
		cfg.CacheBackend = "memory"
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if cfg.RedisURL == "" && cfg.CacheBackend == "redis" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	return cfg
}

// HasCredentials reports whether both private API credentials are present.
func (c *Config) HasCredentials() bool {
	return strings.TrimSpace(c.WhitebitAPIKey) != "" && strings.TrimSpace(c.WhitebitAPISecret) != ""
}
