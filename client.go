// Package ethlayer assembles a middleware stack from configuration: a
// JSON-RPC transport, the base provider, and optionally a local signer layer
// and a gas escalator layer on top.
package ethlayer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/ethlayer/ethlayer/core/middleware"
	"github.com/ethlayer/ethlayer/middleware/escalator"
	"github.com/ethlayer/ethlayer/middleware/signer"
	"github.com/ethlayer/ethlayer/middleware/transformer"
	"github.com/ethlayer/ethlayer/pkg/config"
	"github.com/ethlayer/ethlayer/provider"
	"github.com/ethlayer/ethlayer/transport/rpcclient"
)

// Client is a fully-assembled middleware stack. It exposes the complete
// operation catalog of its top layer and owns the underlying transport.
type Client struct {
	middleware.Middleware

	cfg       config.Config
	transport middleware.Transport
	escalator *escalator.Middleware
}

// ClientOption configures stack assembly beyond what config carries.
type ClientOption func(*clientOptions)

type clientOptions struct {
	signer      middleware.Signer
	transformer transformer.Transformer
	logger      zerolog.Logger
	loggerSet   bool
}

// WithSigner inserts a local signing layer into the stack.
func WithSigner(s middleware.Signer) ClientOption {
	return func(o *clientOptions) { o.signer = s }
}

// WithTransformer inserts a call-rewriting layer into the stack.
func WithTransformer(t transformer.Transformer) ClientOption {
	return func(o *clientOptions) { o.transformer = t }
}

// WithLogger attaches a structured logger to every layer.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = l; o.loggerSet = true }
}

// Dial connects to the endpoint named by cfg and assembles the stack, bottom
// to top: provider, then signer, then transformer, then escalator, each layer
// present only when configured.
func Dial(ctx context.Context, cfg config.Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var t middleware.Transport
	var err error
	rpcOpts := []rpcclient.Option{rpcclient.WithTimeout(cfg.RPC.Timeout)}
	if cfg.RPC.JWTSecret != "" {
		t, err = rpcclient.DialAuthenticated(ctx, cfg.RPC.URL, cfg.RPC.JWTSecret, rpcOpts...)
	} else {
		t, err = rpcclient.Dial(ctx, cfg.RPC.URL, rpcOpts...)
	}
	if err != nil {
		return nil, err
	}

	c, err := NewClient(ctx, t, cfg, opts...)
	if err != nil {
		t.Close()
		return nil, err
	}
	return c, nil
}

// NewClient assembles the stack over an existing transport. The client takes
// ownership of the transport and closes it on Close.
func NewClient(ctx context.Context, t middleware.Transport, cfg config.Config, opts ...ClientOption) (*Client, error) {
	o := &clientOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}

	providerOpts := []provider.Option{provider.WithLogger(o.logger)}
	registry, err := cfg.ENS.RegistryAddress()
	if err != nil {
		return nil, err
	}
	if registry != nil {
		providerOpts = append(providerOpts, provider.WithENSRegistry(*registry))
	}

	var stack middleware.Middleware = provider.NewProvider(t, providerOpts...)

	if o.signer != nil {
		s, err := signer.NewWithProviderChain(ctx, stack, o.signer)
		if err != nil {
			return nil, err
		}
		if o.loggerSet {
			s.SetLogger(o.logger)
		}
		stack = s
	}

	if o.transformer != nil {
		stack = transformer.New(stack, o.transformer)
	}

	c := &Client{
		Middleware: stack,
		cfg:        cfg,
		transport:  t,
	}

	if cfg.Escalator.Enabled {
		strategy, err := strategyFromConfig(cfg.Escalator)
		if err != nil {
			return nil, err
		}
		freq := escalator.Every(cfg.Escalator.Interval)
		if cfg.Escalator.PerBlock {
			freq = escalator.PerBlock(cfg.Escalator.PollInterval)
		}
		esc := escalator.New(stack, strategy, freq)
		if o.loggerSet {
			esc.SetLogger(o.logger)
		}
		if err := esc.Start(ctx); err != nil {
			return nil, err
		}
		c.Middleware = esc
		c.escalator = esc
	}

	return c, nil
}

func strategyFromConfig(cfg config.EscalatorConfig) (escalator.Strategy, error) {
	switch cfg.Strategy {
	case config.StrategyLinear:
		increase, err := cfg.IncreaseWei()
		if err != nil {
			return nil, err
		}
		return escalator.NewLinear(increase, cfg.Interval), nil
	case config.StrategyGeometric:
		maxPrice, err := cfg.MaxPriceWei()
		if err != nil {
			return nil, err
		}
		return escalator.NewGeometric(cfg.Coefficient, cfg.Interval, maxPrice), nil
	}
	return nil, fmt.Errorf("unknown escalation strategy %q", cfg.Strategy)
}

// QueryLogs pages through historical logs using the configured page size.
func (c *Client) QueryLogs(ctx context.Context, q ethereum.FilterQuery) middleware.LogIterator {
	return c.Middleware.QueryLogs(ctx, q, c.cfg.Logs.PageSize)
}

// CollectLogs drains a paginated log query into a slice.
func (c *Client) CollectLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error) {
	it := c.QueryLogs(ctx, q)
	var logs []ethtypes.Log
	for it.Next(ctx) {
		logs = append(logs, it.Log())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// Close stops the escalator monitor, if any, and releases the transport.
func (c *Client) Close() error {
	if c.escalator != nil {
		if err := c.escalator.Stop(); err != nil {
			return err
		}
	}
	c.transport.Close()
	return nil
}
