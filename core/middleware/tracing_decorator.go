package middleware

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethlayer/ethlayer/types"
)

// TracedMiddleware wraps a Middleware and records spans for key operations.
// Operations without a span are inherited from Layer untouched.
type TracedMiddleware struct {
	Layer
	tracer trace.Tracer
}

// WithTracing decorates a Middleware with OpenTelemetry spans.
func WithTracing(inner Middleware) *TracedMiddleware {
	return &TracedMiddleware{
		Layer:  NewLayer(inner),
		tracer: otel.Tracer("ethlayer/middleware"),
	}
}

func (t *TracedMiddleware) FillTransaction(ctx context.Context, req *types.Request) error {
	ctx, span := t.tracer.Start(ctx, "Middleware.FillTransaction",
		trace.WithAttributes(attribute.Int("tx.type", int(req.Type))),
	)
	defer span.End()

	err := t.Inner().FillTransaction(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (t *TracedMiddleware) SendTransaction(ctx context.Context, req *types.Request) (common.Hash, error) {
	ctx, span := t.tracer.Start(ctx, "Middleware.SendTransaction",
		trace.WithAttributes(attribute.Int("tx.type", int(req.Type))),
	)
	defer span.End()

	hash, err := t.Inner().SendTransaction(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("tx.hash", hash.Hex()))
	}
	return hash, err
}

func (t *TracedMiddleware) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	ctx, span := t.tracer.Start(ctx, "Middleware.SendRawTransaction",
		trace.WithAttributes(attribute.Int("tx.size", len(raw))),
	)
	defer span.End()

	hash, err := t.Inner().SendRawTransaction(ctx, raw)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return hash, err
}

func (t *TracedMiddleware) EstimateGas(ctx context.Context, req *types.Request) (uint64, error) {
	ctx, span := t.tracer.Start(ctx, "Middleware.EstimateGas")
	defer span.End()

	gas, err := t.Inner().EstimateGas(ctx, req)
	if err == nil {
		span.SetAttributes(attribute.Int64("gas.estimate", int64(gas)))
	} else {
		span.SetStatus(codes.Error, err.Error())
	}
	return gas, err
}

func (t *TracedMiddleware) CallContract(ctx context.Context, req *types.Request, block *big.Int) ([]byte, error) {
	ctx, span := t.tracer.Start(ctx, "Middleware.CallContract")
	defer span.End()

	out, err := t.Inner().CallContract(ctx, req, block)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (t *TracedMiddleware) SignTransaction(ctx context.Context, req *types.Request) ([]byte, error) {
	ctx, span := t.tracer.Start(ctx, "Middleware.SignTransaction")
	defer span.End()

	raw, err := t.Inner().SignTransaction(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return raw, err
}

func (t *TracedMiddleware) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error) {
	ctx, span := t.tracer.Start(ctx, "Middleware.FilterLogs")
	defer span.End()

	logs, err := t.Inner().FilterLogs(ctx, q)
	if err == nil {
		span.SetAttributes(attribute.Int("log.count", len(logs)))
	} else {
		span.SetStatus(codes.Error, err.Error())
	}
	return logs, err
}

func (t *TracedMiddleware) ResolveName(ctx context.Context, name string) (common.Address, error) {
	ctx, span := t.tracer.Start(ctx, "Middleware.ResolveName",
		trace.WithAttributes(attribute.String("ens.name", name)),
	)
	defer span.End()

	addr, err := t.Inner().ResolveName(ctx, name)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return addr, err
}
