// Package transformer layers call rewriting onto a middleware stack: before a
// transaction is filled or sent, a Transformer redirects it through an
// intermediary contract such as a DSProxy.
package transformer

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethlayer/ethlayer/core/middleware"
	"github.com/ethlayer/ethlayer/types"
)

// ErrMissingField is wrapped by MissingFieldError; use errors.Is against this
// and errors.As for the field name.
var ErrMissingField = errors.New("transaction field required by the transformer is unset")

// MissingFieldError reports a request lacking a field the transformer needs.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "transformer: missing required transaction field " + e.Field
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// Error wraps a failure with the transformer-layer operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "transformer: " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func opErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Transformer rewrites a transaction request in place, typically redirecting
// it through an intermediary contract. Implementations must be safe for
// concurrent use.
type Transformer interface {
	Transform(req *types.Request) error
}

var _ middleware.Middleware = (*Middleware)(nil)

// Middleware applies a Transformer to outgoing transactions. Read operations
// pass through untouched; only FillTransaction and SendTransaction see the
// rewritten request.
type Middleware struct {
	middleware.Layer
	transformer Transformer
}

// New wraps inner with the given transformer.
func New(inner middleware.Middleware, t Transformer) *Middleware {
	return &Middleware{
		Layer:       middleware.NewLayer(inner),
		transformer: t,
	}
}

// FillTransaction rewrites the request, then delegates the fill inward so the
// rewritten call is what gets priced and gas-estimated.
func (m *Middleware) FillTransaction(ctx context.Context, req *types.Request) error {
	if err := m.transformer.Transform(req); err != nil {
		return opErr("fill", err)
	}
	if err := m.Inner().FillTransaction(ctx, req); err != nil {
		return opErr("fill", err)
	}
	return nil
}

// SendTransaction rewrites a clone of the request and submits it through the
// inner layer. The caller's request is not mutated.
func (m *Middleware) SendTransaction(ctx context.Context, req *types.Request) (common.Hash, error) {
	rewritten := req.Clone()
	if err := m.transformer.Transform(rewritten); err != nil {
		return common.Hash{}, opErr("send", err)
	}
	hash, err := m.Inner().SendTransaction(ctx, rewritten)
	if err != nil {
		return common.Hash{}, opErr("send", err)
	}
	return hash, nil
}
