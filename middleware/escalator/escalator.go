// Package escalator layers gas-price escalation onto a middleware stack: a
// background monitor watches broadcast transactions and rebroadcasts the
// still-unconfirmed ones at increasing price per a pluggable strategy.
package escalator

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/ethlayer/ethlayer/core/middleware"
	"github.com/ethlayer/ethlayer/types"
)

// Errors raised by the escalator layer.
var (
	// ErrUnsupportedTxType is returned for fee-market transactions: their
	// price fields are not freely substitutable, so they cannot be
	// escalated by swapping a single gas price.
	ErrUnsupportedTxType = errors.New("gas escalation is only supported for legacy or access-list transactions")

	// ErrNotStarted is returned when a transaction is submitted before the
	// monitor has been started.
	ErrNotStarted = errors.New("escalator monitor is not running")
)

// Error wraps a failure with the escalator-layer operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "escalator: " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func opErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Frequency is the cadence at which the monitor re-evaluates outstanding
// transactions.
type Frequency struct {
	perBlock bool
	interval time.Duration
}

// PerBlock sweeps whenever a new block is observed, via a node-side block
// filter polled on pollInterval.
func PerBlock(pollInterval time.Duration) Frequency {
	return Frequency{perBlock: true, interval: pollInterval}
}

// Every sweeps on a fixed wall-clock duration.
func Every(d time.Duration) Frequency {
	return Frequency{interval: d}
}

var _ middleware.Middleware = (*Middleware)(nil)

// Middleware is the gas escalator layer. SendTransaction broadcasts through
// the inner layer unchanged and then hands the transaction to the background
// monitor. Start must be called before submitting transactions, and Stop when
// the stack is torn down; escalation state does not survive a restart.
type Middleware struct {
	middleware.Layer
	monitor *Monitor
}

// New wraps inner with gas escalation driven by the given strategy and
// frequency.
func New(inner middleware.Middleware, strategy Strategy, freq Frequency) *Middleware {
	return &Middleware{
		Layer:   middleware.NewLayer(inner),
		monitor: newMonitor(inner, strategy, freq),
	}
}

// SetLogger attaches a structured logger to the layer and its monitor.
func (m *Middleware) SetLogger(l zerolog.Logger) {
	m.monitor.logger = l.With().Str("component", "escalator").Logger()
}

// Start launches the background monitor.
func (m *Middleware) Start(ctx context.Context) error {
	return m.monitor.Start(ctx)
}

// Stop shuts the monitor down and waits for the sweep loop to exit.
func (m *Middleware) Stop() error {
	return m.monitor.Stop()
}

// Monitor exposes the background monitor, mainly for tests.
func (m *Middleware) Monitor() *Monitor { return m.monitor }

// SendTransaction rejects fee-market transactions, broadcasts everything else
// through the inner layer, and enqueues the broadcast transaction for
// escalation.
func (m *Middleware) SendTransaction(ctx context.Context, req *types.Request) (common.Hash, error) {
	if req.Type == types.DynamicFeeTxType {
		return common.Hash{}, opErr("send", ErrUnsupportedTxType)
	}
	if !m.monitor.isStarted() {
		return common.Hash{}, opErr("send", ErrNotStarted)
	}

	// Fill before sending so the monitor records the exact priced and
	// nonced transaction that went out.
	filled := req.Clone()
	if err := m.Inner().FillTransaction(ctx, filled); err != nil {
		return common.Hash{}, opErr("send", err)
	}
	// Rebroadcasts replace the original by nonce, so the nonce is pinned
	// here rather than left to the node. A stack without a nonce-filling
	// layer below must at least know the sender.
	if filled.Nonce == nil {
		if filled.From == nil {
			return common.Hash{}, opErr("send", types.ErrMissingNonce)
		}
		nonce, err := m.Inner().PendingNonceAt(ctx, *filled.From)
		if err != nil {
			return common.Hash{}, opErr("send", err)
		}
		filled.Nonce = &nonce
	}
	hash, err := m.Inner().SendTransaction(ctx, filled)
	if err != nil {
		return common.Hash{}, opErr("send", err)
	}

	if err := m.monitor.enqueue(ctx, hash, filled); err != nil {
		return hash, opErr("send", err)
	}
	return hash, nil
}
