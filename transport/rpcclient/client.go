// Package rpcclient is the production Transport: a thin wrapper over
// go-ethereum's JSON-RPC client, with optional JWT-authenticated dialing for
// protected endpoints.
package rpcclient

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ethlayer/ethlayer/core/middleware"
)

var _ middleware.Transport = (*Client)(nil)

// Client speaks Ethereum JSON-RPC over HTTP, WebSocket or IPC, depending on
// the dialed URL. Safe for concurrent use.
type Client struct {
	rpc     *rpc.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request with a deadline. Zero leaves requests
// bounded only by the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Dial connects to the given endpoint.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return NewClient(c, opts...), nil
}

// DialAuthenticated connects to an endpoint protected by JWT bearer
// authentication, signing a fresh HS256 token for every request.
func DialAuthenticated(ctx context.Context, url, jwtSecretHex string, opts ...Option) (*Client, error) {
	secret, err := decodeSecret(jwtSecretHex)
	if err != nil {
		return nil, err
	}
	c, err := rpc.DialOptions(ctx, url,
		rpc.WithHTTPAuth(func(h http.Header) error {
			token, err := authToken(secret)
			if err != nil {
				return err
			}
			h.Set("Authorization", "Bearer "+token)
			return nil
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return NewClient(c, opts...), nil
}

// NewClient wraps an already-connected rpc client.
func NewClient(c *rpc.Client, opts ...Option) *Client {
	client := &Client{rpc: c}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Request performs one RPC call, deserializing the response into result.
func (c *Client) Request(ctx context.Context, result any, method string, params ...any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.rpc.CallContext(ctx, result, method, params...)
}

// Close tears down the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}

// decodeSecret decodes a hex-encoded JWT secret string into a byte slice.
func decodeSecret(jwtSecret string) ([]byte, error) {
	secret, err := hex.DecodeString(strings.TrimPrefix(jwtSecret, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode JWT secret: %w", err)
	}
	return secret, nil
}

// authToken creates a JWT token signed with the provided secret, valid for 1 hour.
func authToken(jwtSecret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}
