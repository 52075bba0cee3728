package whitebit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"whitebit-mcp/internal/domain"
)

const defaultWSTimeout = 10 * time.Second

// WSClient issues request/response calls over the WhiteBit public
// websocket. The connection is dialed lazily on first use and redialed
// after a disconnect.
type WSClient struct {
	url     string
	dialer  *websocket.Dialer
	timeout time.Duration
	nextID  atomic.Int64

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[int64]chan *wsResponse
	closed  bool
}

type WSOption func(*WSClient)

func WithWSURL(wsURL string) WSOption {
	return func(c *WSClient) { c.url = wsURL }
}

func WithWSTimeout(timeout time.Duration) WSOption {
	return func(c *WSClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func NewWSClient(opts ...WSOption) *WSClient {
	c := &WSClient{
		url:     DefaultWSURL,
		dialer:  websocket.DefaultDialer,
		timeout: defaultWSTimeout,
		pending: make(map[int64]chan *wsResponse),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type wsRequest struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type wsResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *wsError        `json:"error"`
}

// LastPrice returns the last traded price for a market.
func (c *WSClient) LastPrice(ctx context.Context, market string) (*domain.LastPrice, error) {
	result, err := c.call(ctx, "lastprice_request", []any{market})
	if err != nil {
		return nil, err
	}

	var price string
	if err := json.Unmarshal(result, &price); err != nil {
		return nil, fmt.Errorf("decode lastprice result: %w", err)
	}
	return &domain.LastPrice{Market: market, Price: price}, nil
}

// Depth returns an aggregated order book for a market. limit caps the
// number of levels per side; non-positive values request 100 levels.
func (c *WSClient) Depth(ctx context.Context, market string, limit int) (*domain.MarketDepth, error) {
	if limit <= 0 {
		limit = 100
	}

	result, err := c.call(ctx, "depth_request", []any{market, limit, "0"})
	if err != nil {
		return nil, err
	}

	var book struct {
		Asks [][]string `json:"asks"`
		Bids [][]string `json:"bids"`
	}
	if err := json.Unmarshal(result, &book); err != nil {
		return nil, fmt.Errorf("decode depth result: %w", err)
	}
	return &domain.MarketDepth{Market: market, Asks: book.Asks, Bids: book.Bids}, nil
}

// Ping round-trips a ping frame through the websocket API.
func (c *WSClient) Ping(ctx context.Context) error {
	_, err := c.call(ctx, "ping", []any{})
	return err
}

func (c *WSClient) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	conn, err := c.ensureConn(ctx)
	if err != nil {
		return nil, err
	}

	id := c.nextID.Add(1)
	ch := make(chan *wsResponse, 1)

	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return nil, errors.New("whitebit ws: connection lost")
	}
	c.pending[id] = ch
	err = conn.WriteJSON(wsRequest{ID: id, Method: method, Params: params})
	c.mu.Unlock()
	if err != nil {
		c.dropPending(id)
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("%s: connection closed", method)
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("%s: %s (code %d)", method, resp.Error.Message, resp.Error.Code)
		}
		return resp.Result, nil
	case <-ctx.Done():
		c.dropPending(id)
		return nil, ctx.Err()
	case <-timer.C:
		c.dropPending(id)
		return nil, fmt.Errorf("%s: no response within %s", method, c.timeout)
	}
}

func (c *WSClient) ensureConn(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.New("whitebit ws: client closed")
	}
	if c.conn != nil {
		return c.conn, nil
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", c.url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.conn = conn
	go c.readLoop(conn)
	return conn, nil
}

// readLoop routes responses to waiting callers by request id. Push
// notifications carry no id we asked for and are dropped.
func (c *WSClient) readLoop(conn *websocket.Conn) {
	for {
		var resp wsResponse
		if err := conn.ReadJSON(&resp); err != nil {
			c.handleDisconnect(conn)
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()

		if ok {
			ch <- &resp
		}
	}
}

func (c *WSClient) handleDisconnect(conn *websocket.Conn) {
	conn.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.conn = nil
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *WSClient) dropPending(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Close shuts the connection down and fails any in-flight calls. The
// client cannot be reused afterwards.
func (c *WSClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}
