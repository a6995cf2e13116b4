package daemon

import (
	"context"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stavren/modelsync/internal/domain"
)

// StreamState is the push channel's connection state.
type StreamState int32

const (
	StateDisconnected StreamState = iota
	StateConnecting
	StateConnected
)

func (s StreamState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// StreamClient maintains the daemon's push channel and classifies inbound
// frames. Recognized events go out on Events; Refresh pulses whenever state
// should be re-read, from three sources: the fixed-period poll timer, coarse
// refresh events, and unparseable non-heartbeat frames.
//
// The poll is a deliberate redundancy: it guarantees eventual consistency
// even if discrete events are dropped, while the channel gives low-latency
// updates. A poll timer lives exactly as long as its connection; it is torn
// down on close and a fresh one is created only on the next successful
// open, so timers never accumulate across reconnects.
//
// Reconnects use a fixed delay with no backoff growth, no retry limit, and
// no distinction between clean and error close.
type StreamClient struct {
	wsURL          string
	token          func() string
	reconnectDelay time.Duration
	pollInterval   time.Duration
	dialer         *websocket.Dialer
	logger         *slog.Logger

	events  chan domain.Event
	refresh chan struct{}
	state   atomic.Int32
}

// NewStreamClient creates a push channel client for the given ws:// URL.
func NewStreamClient(wsURL string, token func() string, reconnectDelay, pollInterval time.Duration, logger *slog.Logger) *StreamClient {
	if logger == nil {
		logger = slog.Default()
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &StreamClient{
		wsURL:          wsURL,
		token:          token,
		reconnectDelay: reconnectDelay,
		pollInterval:   pollInterval,
		dialer:         websocket.DefaultDialer,
		logger:         logger,
		events:         make(chan domain.Event, 64),
		refresh:        make(chan struct{}, 1),
	}
}

// Events delivers classified lifecycle events.
func (c *StreamClient) Events() <-chan domain.Event { return c.events }

// Refresh pulses when authoritative state should be re-read.
func (c *StreamClient) Refresh() <-chan struct{} { return c.refresh }

// State returns the current connection state.
func (c *StreamClient) State() StreamState {
	return StreamState(c.state.Load())
}

// Run drives the connect/read/reconnect loop until ctx is cancelled.
func (c *StreamClient) Run(ctx context.Context) {
	defer c.state.Store(int32(StateDisconnected))

	for {
		c.state.Store(int32(StateConnecting))
		conn, resp, err := c.dialer.DialContext(ctx, c.dialURL(), nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.state.Store(int32(StateDisconnected))
			c.logger.Warn("push channel dial failed", "url", c.wsURL, "error", err)
			if !sleepCtx(ctx, c.reconnectDelay) {
				return
			}
			continue
		}

		c.state.Store(int32(StateConnected))
		c.logger.Info("push channel connected", "url", c.wsURL)

		// Connection established: trigger an immediate re-read so events
		// lost while disconnected are reconciled away.
		c.signalRefresh()

		closed := make(chan struct{})
		go c.readLoop(conn, closed)

		ticker := time.NewTicker(c.pollInterval)

	connected:
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				conn.Close()
				<-closed
				return
			case <-closed:
				break connected
			case <-ticker.C:
				c.signalRefresh()
			}
		}

		ticker.Stop()
		conn.Close()
		c.state.Store(int32(StateDisconnected))
		c.logger.Warn("push channel closed, reconnecting", "delay", c.reconnectDelay)

		if !sleepCtx(ctx, c.reconnectDelay) {
			return
		}
	}
}

func (c *StreamClient) readLoop(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		ev, class := classifyFrame(raw)
		switch class {
		case frameEvent:
			select {
			case c.events <- ev:
			default:
				// Consumer is behind; the poll pulse below restores
				// consistency without this event.
				c.logger.Warn("event channel full, dropping event", "kind", ev.Kind)
			}
			if ev.Kind.IsRefresh() {
				c.signalRefresh()
			}
		case frameOpaque:
			c.signalRefresh()
		}
	}
}

func (c *StreamClient) signalRefresh() {
	select {
	case c.refresh <- struct{}{}:
	default: // a pulse is already pending
	}
}

func (c *StreamClient) dialURL() string {
	tok := c.token()
	if tok == "" {
		return c.wsURL
	}
	return c.wsURL + "?token=" + url.QueryEscape(tok)
}

// sleepCtx waits d or until ctx is done; returns false when cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
