// Package feed streams swap events from an upstream indexer over
// WebSocket. The upstream resolves finality and per-pool ordering; the
// client only decodes and hands events to the engine.
package feed

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/observability"
)

// Handler consumes decoded swap events. *engine.Engine satisfies it.
type Handler interface {
	Accept(ctx context.Context, event *domain.SwapEvent) error
}

// ClientConfig configures WebSocket client behavior.
type ClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultClientConfig returns default WebSocket configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Client streams swap events for a set of pools into a Handler,
// reconnecting with exponential backoff on connection loss.
type Client struct {
	endpoint string
	pools    []string
	config   ClientConfig
	logger   *log.Logger
}

// NewClient creates a feed client for the given pools.
func NewClient(endpoint string, pools []string, config *ClientConfig, logger *log.Logger) *Client {
	cfg := DefaultClientConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		endpoint: endpoint,
		pools:    pools,
		config:   cfg,
		logger:   logger,
	}
}

// Run streams events into the handler until the context is canceled.
// Decode failures skip the message; handler failures skip the event and
// log it, so one bad event cannot stall the stream.
func (c *Client) Run(ctx context.Context, handler Handler) error {
	delay := c.config.ReconnectDelay

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		started := time.Now()
		err := c.streamOnce(ctx, handler)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Printf("WARN: feed disconnected: %v; reconnecting in %s", err, delay)
		observability.RecordFeedReconnect()

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay = c.nextDelay(delay, time.Since(started))
	}
}

// nextDelay doubles the backoff up to the configured maximum. A
// connection that stayed up past the maximum delay counts as healthy and
// resets the backoff, so a long-lived stream that drops once does not
// inherit the accumulated delay.
func (c *Client) nextDelay(current, connectedFor time.Duration) time.Duration {
	if connectedFor >= c.config.MaxReconnectDelay {
		return c.config.ReconnectDelay
	}
	next := current * 2
	if next > c.config.MaxReconnectDelay {
		next = c.config.MaxReconnectDelay
	}
	return next
}

// streamOnce runs a single connection lifetime: dial, subscribe, read.
func (c *Client) streamOnce(ctx context.Context, handler Handler) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(subscribeRequest{Type: "subscribe", Pools: c.pools}); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	for {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		observability.RecordFeedMessage()

		event, err := DecodeSwapEvent(data)
		if err != nil {
			c.logger.Printf("WARN: skipping undecodable feed message: %v", err)
			observability.RecordEventDropped("decode_error")
			continue
		}
		if event == nil {
			continue
		}

		if err := handler.Accept(ctx, event); err != nil {
			// Failures are local to one event; the stream continues.
			c.logger.Printf("WARN: event %s[%d] not applied: %v", event.TxHash, event.LogIndex, err)
		}
	}
}
