// Package middleware defines the capability interfaces of the client stack:
// the Middleware operation catalog every layer exposes, the Transport a base
// provider speaks through, and the Signer used for local signing. Concrete
// layers embed Layer and override only the operations they change.
package middleware

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/ethlayer/ethlayer/types"
)

// Middleware is the full operation catalog produced by every layer of the
// stack. A layer wraps exactly one inner layer and either implements an
// operation itself or delegates it unchanged. The terminal layer (the base
// provider) returns nil from Inner.
//
// Block-parameterized operations take a *big.Int block number where nil means
// the chain head.
type Middleware interface {
	// Inner returns the next layer down, or nil for the terminal layer.
	Inner() Middleware

	// DefaultSender returns the address used for the from field when the
	// caller leaves it unset, or nil if the stack has no default sender.
	DefaultSender() *common.Address

	// Chain and block data.
	ChainID(ctx context.Context) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error)
	HeaderByHash(ctx context.Context, hash common.Hash) (*ethtypes.Header, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*ethtypes.Block, error)
	BlockByHash(ctx context.Context, hash common.Hash) (*ethtypes.Block, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error)

	// Account state.
	BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, block *big.Int) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	CodeAt(ctx context.Context, account common.Address, block *big.Int) ([]byte, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, block *big.Int) ([]byte, error)

	// Fees.
	GasPrice(ctx context.Context) (*big.Int, error)
	EstimateEIP1559Fees(ctx context.Context) (gasFeeCap, gasTipCap *big.Int, err error)

	// Simulation and submission.
	CallContract(ctx context.Context, req *types.Request, block *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, req *types.Request) (uint64, error)
	FillTransaction(ctx context.Context, req *types.Request) error
	SignTransaction(ctx context.Context, req *types.Request) ([]byte, error)
	SignMessage(ctx context.Context, from common.Address, data []byte) ([]byte, error)
	SendTransaction(ctx context.Context, req *types.Request) (common.Hash, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)

	// Logs and filters.
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error)
	QueryLogs(ctx context.Context, q ethereum.FilterQuery, pageSize uint64) LogIterator
	NewLogFilter(ctx context.Context, q ethereum.FilterQuery) (string, error)
	NewBlockFilter(ctx context.Context) (string, error)
	FilterChanges(ctx context.Context, id string) ([]ethtypes.Log, error)
	BlockFilterChanges(ctx context.Context, id string) ([]common.Hash, error)
	UninstallFilter(ctx context.Context, id string) (bool, error)

	// Name resolution.
	ResolveName(ctx context.Context, name string) (common.Address, error)
	LookupAddress(ctx context.Context, addr common.Address) (string, error)
}

// LogIterator is a lazy, finite sequence of historical logs produced by
// QueryLogs. The cursor is owned by a single caller and must not be shared.
//
//	it := mw.QueryLogs(ctx, q, 10_000)
//	for it.Next(ctx) {
//	    use(it.Log())
//	}
//	if err := it.Err(); err != nil { ... }
type LogIterator interface {
	// Next advances to the next log, fetching further pages as needed.
	// It returns false when the sequence is exhausted or a fetch failed.
	Next(ctx context.Context) bool
	// Log returns the log Next positioned the iterator on.
	Log() ethtypes.Log
	// Err returns the first fetch error, or nil on clean exhaustion.
	Err() error
}

// Transport issues one remote procedure call against a node: it serializes
// params, invokes method and deserializes the response into result. It must
// be safe for concurrent use by multiple logical operations.
type Transport interface {
	Request(ctx context.Context, result any, method string, params ...any) error
	Close()
}

// Signer produces signatures with locally-held key material.
type Signer interface {
	Address() common.Address
	ChainID() uint64
	// SignTransaction returns the raw signed encoding of a fully-populated
	// request, ready for SendRawTransaction.
	SignTransaction(ctx context.Context, req *types.Request) ([]byte, error)
	SignMessage(ctx context.Context, data []byte) ([]byte, error)
	// WithChainID returns a reconfigured copy bound to the given chain.
	WithChainID(id uint64) Signer
}
