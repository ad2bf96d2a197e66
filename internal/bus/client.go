// Package bus wraps the nats.go library with connection management and
// subscription tracking for the live transaction subscriber and the
// optional telepath signal publisher.
//
// # Usage
//
// The package exposes a singleton client initialized once per process:
//
//	bus.Connect(bus.Config{Address: "nats://localhost:4222"})
//	client := bus.GetClient()
//	client.Subscribe("pumpfun.transactions", func(subject string, data []byte) {
//	    ...
//	})
//
// # Thread Safety
//
// All Client methods are safe for concurrent use.
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/pumpfun-analytics/ingestor/internal/xlog"
)

var (
	clientOnce     sync.Once
	clientInstance *Client
)

// Config holds the configuration for connecting to a NATS server.
type Config struct {
	Address       string `toml:"address"`
	Username      string `toml:"username"`
	Password      string `toml:"password"`
	CredsFilePath string `toml:"creds_file_path"`
}

// MessageHandler is a callback function for processing received messages.
type MessageHandler func(subject string, data []byte)

// Client wraps a NATS connection with subscription management.
type Client struct {
	conn          *nats.Conn
	js            jetstream.JetStream
	subscriptions []*nats.Subscription
	mu            sync.Mutex
}

// Connect initializes the singleton bus client. Safe to call more than once;
// only the first call establishes a connection.
func Connect(cfg Config) {
	clientOnce.Do(func() {
		if cfg.Address == "" {
			xlog.Warn("bus: no address configured, skipping connection")
			return
		}

		client, err := NewClient(cfg)
		if err != nil {
			xlog.Warnf("bus: connection failed: %v", err)
			return
		}

		clientInstance = client
	})
}

// GetClient returns the singleton client instance, or nil if Connect has
// not succeeded yet.
func GetClient() *Client {
	if clientInstance == nil {
		xlog.Warn("bus: client not initialized")
	}
	return clientInstance
}

// NewClient creates a new bus client independent of the package singleton.
// Used by components (e.g. telepath) that need their own connection.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("bus: address is required")
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}

	opts = append(opts, nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
		if err != nil {
			xlog.Warnf("bus: disconnected: %v", err)
		}
	}))
	opts = append(opts, nats.ReconnectHandler(func(nc *nats.Conn) {
		xlog.Infof("bus: reconnected to %s", nc.ConnectedUrl())
	}))
	opts = append(opts, nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
		xlog.Errorf("bus: async error: %v", err)
	}))

	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("bus: connect failed: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("bus: jetstream init failed: %w", err)
	}

	xlog.Infof("bus: connected to %s", cfg.Address)
	return &Client{conn: nc, js: js, subscriptions: make([]*nats.Subscription, 0)}, nil
}

// Subscribe registers a handler for messages on the given subject.
func (c *Client) Subscribe(subject string, handler MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("bus: subscribe to %q failed: %w", subject, err)
	}

	c.subscriptions = append(c.subscriptions, sub)
	xlog.Infof("bus: subscribed to %q", subject)
	return nil
}

// Publish sends data to the specified subject.
func (c *Client) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("bus: publish to %q failed: %w", subject, err)
	}
	return nil
}

// JetStream returns the underlying JetStream context, used by the telepath
// publisher to create/resolve streams.
func (c *Client) JetStream() jetstream.JetStream { return c.js }

// Flush flushes the connection buffer.
func (c *Client) Flush() error { return c.conn.Flush() }

// Close unsubscribes everything and closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			xlog.Warnf("bus: unsubscribe failed: %v", err)
		}
	}
	c.subscriptions = nil

	if c.conn != nil {
		c.conn.Close()
		xlog.Info("bus: connection closed")
	}
}

// IsConnected reports whether the underlying connection is active.
func (c *Client) IsConnected() bool { return c.conn != nil && c.conn.IsConnected() }

// Request performs a request/reply round trip with the given context.
func (c *Client) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	msg, err := c.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("bus: request to %q failed: %w", subject, err)
	}
	return msg.Data, nil
}
