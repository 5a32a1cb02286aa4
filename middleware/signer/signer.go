// Package signer layers local transaction signing onto a middleware stack:
// it injects the signer's address as default sender, enforces chain-id
// consistency, resolves nonces, and turns SendTransaction into
// fill-sign-send-raw.
package signer

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/ethlayer/ethlayer/core/middleware"
	"github.com/ethlayer/ethlayer/types"
)

// Errors raised by the signer layer.
var (
	// ErrWrongSigner is returned when a signature is requested for an
	// address other than the configured signer's.
	ErrWrongSigner = errors.New("specified from address is not the signer")

	// ErrChainIDMismatch is returned when a transaction carries a chain id
	// that disagrees with the signer's configured chain id. The transaction
	// is never silently rewritten.
	ErrChainIDMismatch = errors.New("transaction chain id differs from the signer's chain id")
)

// Error wraps a failure with the signer-layer operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "signer: " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func opErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

var _ middleware.Middleware = (*Middleware)(nil)

// Middleware is the signer layer. It holds only static configuration and is
// safe to share across concurrent calls.
type Middleware struct {
	middleware.Layer
	signer  middleware.Signer
	address common.Address
	logger  zerolog.Logger
}

// New wraps inner with the given signer. The signer's configured chain id is
// kept as-is; if it disagrees with the chain behind inner, signing operations
// will fail. Use NewWithProviderChain to adopt the provider's chain id.
func New(inner middleware.Middleware, s middleware.Signer) *Middleware {
	return &Middleware{
		Layer:   middleware.NewLayer(inner),
		signer:  s,
		address: s.Address(),
		logger:  zerolog.Nop(),
	}
}

// NewWithProviderChain fetches the chain id from inner with one blocking
// round trip and reconfigures the signer to match, removing the chain-id
// mismatch failure mode at the cost of one extra call.
func NewWithProviderChain(ctx context.Context, inner middleware.Middleware, s middleware.Signer) (*Middleware, error) {
	chainID, err := inner.ChainID(ctx)
	if err != nil {
		return nil, opErr("fetch chain id", err)
	}
	return New(inner, s.WithChainID(chainID)), nil
}

// SetLogger attaches a structured logger.
func (m *Middleware) SetLogger(l zerolog.Logger) {
	m.logger = l.With().Str("component", "signer").Logger()
}

// Signer returns the signing capability backing this layer.
func (m *Middleware) Signer() middleware.Signer { return m.signer }

// Address returns the signer's address.
func (m *Middleware) Address() common.Address { return m.address }

// DefaultSender returns the signer's address.
func (m *Middleware) DefaultSender() *common.Address {
	addr := m.address
	return &addr
}

// checkChainID enforces the chain-id invariant and stamps the signer's chain
// id onto requests that carry none.
func (m *Middleware) checkChainID(req *types.Request) error {
	chainID := m.signer.ChainID()
	if req.ChainID != nil && *req.ChainID != chainID {
		return ErrChainIDMismatch
	}
	if req.ChainID == nil {
		req.ChainID = &chainID
	}
	return nil
}

// FillTransaction resolves the effective sender, chain id and nonce, then
// delegates the remaining fill (fees, gas limit) inward.
func (m *Middleware) FillTransaction(ctx context.Context, req *types.Request) error {
	// Prefer an explicit caller-supplied sender over the signer's address.
	from := m.address
	if req.From != nil && *req.From != m.address {
		from = *req.From
	}
	req.From = &from

	if err := m.checkChainID(req); err != nil {
		return opErr("fill", err)
	}

	if req.Nonce == nil {
		nonce, err := m.Inner().PendingNonceAt(ctx, from)
		if err != nil {
			return opErr("fill", err)
		}
		req.Nonce = &nonce
	}

	if err := m.Inner().FillTransaction(ctx, req); err != nil {
		return opErr("fill", err)
	}
	return nil
}

// SignTransaction signs locally. A request naming a sender other than the
// signer's address fails with ErrWrongSigner.
func (m *Middleware) SignTransaction(ctx context.Context, req *types.Request) ([]byte, error) {
	if req.From != nil && *req.From != m.address {
		return nil, opErr("sign", ErrWrongSigner)
	}
	if err := m.checkChainID(req); err != nil {
		return nil, opErr("sign", err)
	}
	raw, err := m.signer.SignTransaction(ctx, req)
	if err != nil {
		return nil, opErr("sign", err)
	}
	return raw, nil
}

// SignMessage signs with the local signer instead of the node.
func (m *Middleware) SignMessage(ctx context.Context, from common.Address, data []byte) ([]byte, error) {
	if from != m.address {
		return nil, opErr("sign message", ErrWrongSigner)
	}
	sig, err := m.signer.SignMessage(ctx, data)
	if err != nil {
		return nil, opErr("sign message", err)
	}
	return sig, nil
}

// SendTransaction fills the request, signs it locally and broadcasts the raw
// transaction through the inner layer. The caller's request is not mutated.
func (m *Middleware) SendTransaction(ctx context.Context, req *types.Request) (common.Hash, error) {
	filled := req.Clone()
	if err := m.FillTransaction(ctx, filled); err != nil {
		return common.Hash{}, err
	}
	raw, err := m.SignTransaction(ctx, filled)
	if err != nil {
		return common.Hash{}, err
	}
	hash, err := m.Inner().SendRawTransaction(ctx, raw)
	if err != nil {
		return common.Hash{}, opErr("send", err)
	}
	m.logger.Debug().Str("hash", hash.Hex()).Msg("broadcast signed transaction")
	return hash, nil
}

// CallContract injects the signer's address as sender when unset, improving
// simulations that depend on msg.sender.
func (m *Middleware) CallContract(ctx context.Context, req *types.Request, block *big.Int) ([]byte, error) {
	out, err := m.Inner().CallContract(ctx, m.withFrom(req), block)
	if err != nil {
		return nil, opErr("call", err)
	}
	return out, nil
}

// EstimateGas injects the signer's address as sender when unset.
func (m *Middleware) EstimateGas(ctx context.Context, req *types.Request) (uint64, error) {
	gas, err := m.Inner().EstimateGas(ctx, m.withFrom(req))
	if err != nil {
		return 0, opErr("estimate gas", err)
	}
	return gas, nil
}

func (m *Middleware) withFrom(req *types.Request) *types.Request {
	if req.From != nil {
		return req
	}
	cp := req.Clone()
	addr := m.address
	cp.From = &addr
	return cp
}
