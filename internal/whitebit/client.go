// Package whitebit implements REST and WebSocket clients for the WhiteBit
// exchange: public v1/v4 market data, signed private v4 trading calls, and
// the public websocket request/response API.
package whitebit

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"whitebit-mcp/internal/domain"
)

const (
	DefaultBaseURL = "https://whitebit.com"
	DefaultWSURL   = "wss://api.whitebit.com/ws"

	defaultTimeout      = 10 * time.Second
	defaultRetries      = 3
	defaultRetryWait    = 200 * time.Millisecond
	defaultRetryMaxWait = 2 * time.Second
	defaultUserAgent    = "whitebit-mcp/1.0"
)

var ErrMissingCredentials = errors.New("whitebit: api credentials not configured")

// ErrNotFound aliases the shared sentinel so callers of this package can
// match lookup misses without importing domain.
var ErrNotFound = domain.ErrNotFound

// APIError is a non-2xx response from the WhiteBit REST API.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whitebit API error (status %d): %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether the request may be safely reissued.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client talks to the WhiteBit REST API. Public endpoints need no
// credentials; private endpoints require an API key pair.
type Client struct {
	http      *resty.Client
	apiKey    string
	apiSecret string
	nonce     atomic.Int64
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.http.SetBaseURL(baseURL) }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.SetTimeout(timeout)
		}
	}
}

func WithRetries(retries int) Option {
	return func(c *Client) {
		if retries >= 0 {
			c.http.SetRetryCount(retries)
		}
	}
}

func WithCredentials(apiKey, apiSecret string) Option {
	return func(c *Client) {
		c.apiKey = apiKey
		c.apiSecret = apiSecret
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		transport := hc.Transport
		if transport != nil {
			c.http.SetTransport(transport)
		}
		if hc.Timeout > 0 {
			c.http.SetTimeout(hc.Timeout)
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetTimeout(defaultTimeout).
			SetHeader("User-Agent", defaultUserAgent),
	}

	// Only idempotent GETs retry; signed POSTs carry single-use nonces and
	// order placement must not be reissued blindly.
	c.http.SetRetryCount(defaultRetries).
		SetRetryWaitTime(defaultRetryWait).
		SetRetryMaxWaitTime(defaultRetryMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil {
				return false
			}
			if r.Request.Method != http.MethodGet {
				return false
			}
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		}).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp != nil {
				if after := resp.Header().Get("Retry-After"); after != "" {
					if secs, err := strconv.Atoi(after); err == nil && secs > 0 {
						return time.Duration(secs) * time.Second, nil
					}
				}
			}
			return 0, nil
		})

	for _, opt := range opts {
		opt(c)
	}

	c.nonce.Store(time.Now().UnixMilli())
	return c
}

// HasCredentials reports whether the client can issue signed requests.
func (c *Client) HasCredentials() bool {
	return c.apiKey != "" && c.apiSecret != ""
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return newAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// v1 and v2 endpoints wrap results in a success/message/result envelope.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Message json.RawMessage `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) getEnveloped(ctx context.Context, path string, query url.Values, out any) error {
	var env apiEnvelope
	if err := c.getJSON(ctx, path, query, &env); err != nil {
		return err
	}
	if !env.Success {
		return fmt.Errorf("%s: %s", path, envelopeMessage(env.Message))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", path, err)
	}
	return nil
}

func (c *Client) postSigned(ctx context.Context, path string, params map[string]any, out any) error {
	if !c.HasCredentials() {
		return ErrMissingCredentials
	}

	body := make(map[string]any, len(params)+2)
	for k, v := range params {
		body[k] = v
	}
	body["request"] = path
	body["nonce"] = c.nextNonce()

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	payload := base64.StdEncoding.EncodeToString(raw)
	mac := hmac.New(sha512.New, []byte(c.apiSecret))
	mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-TXC-APIKEY", c.apiKey).
		SetHeader("X-TXC-PAYLOAD", payload).
		SetHeader("X-TXC-SIGNATURE", signature).
		SetBody(raw).
		Post(path)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	if resp.IsError() {
		return newAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// nextNonce returns a strictly increasing nonce, unix milliseconds based.
func (c *Client) nextNonce() int64 {
	for {
		last := c.nonce.Load()
		next := time.Now().UnixMilli()
		if next <= last {
			next = last + 1
		}
		if c.nonce.CompareAndSwap(last, next) {
			return next
		}
	}
}

func newAPIError(resp *resty.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Body:       string(resp.Body()),
	}

	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err == nil {
		apiErr.Message = envelopeMessage(payload.Message)
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status()
	}
	return apiErr
}

func envelopeMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "request failed"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	return string(raw)
}
