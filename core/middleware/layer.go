package middleware

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/ethlayer/ethlayer/types"
)

// Layer implements the whole Middleware catalog as pure delegation to the
// next layer down. Concrete layers embed a Layer and override only their
// point of difference; everything else is inherited unchanged.
type Layer struct {
	next Middleware
}

// NewLayer wraps the given inner middleware.
func NewLayer(next Middleware) Layer {
	return Layer{next: next}
}

// Inner returns the wrapped middleware.
func (l Layer) Inner() Middleware { return l.next }

func (l Layer) DefaultSender() *common.Address { return l.next.DefaultSender() }

func (l Layer) ChainID(ctx context.Context) (uint64, error) { return l.next.ChainID(ctx) }

func (l Layer) BlockNumber(ctx context.Context) (uint64, error) { return l.next.BlockNumber(ctx) }

func (l Layer) HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error) {
	return l.next.HeaderByNumber(ctx, number)
}

func (l Layer) HeaderByHash(ctx context.Context, hash common.Hash) (*ethtypes.Header, error) {
	return l.next.HeaderByHash(ctx, hash)
}

func (l Layer) BlockByNumber(ctx context.Context, number *big.Int) (*ethtypes.Block, error) {
	return l.next.BlockByNumber(ctx, number)
}

func (l Layer) BlockByHash(ctx context.Context, hash common.Hash) (*ethtypes.Block, error) {
	return l.next.BlockByHash(ctx, hash)
}

func (l Layer) TransactionByHash(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error) {
	return l.next.TransactionByHash(ctx, hash)
}

func (l Layer) TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	return l.next.TransactionReceipt(ctx, hash)
}

func (l Layer) BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
	return l.next.BalanceAt(ctx, account, block)
}

func (l Layer) NonceAt(ctx context.Context, account common.Address, block *big.Int) (uint64, error) {
	return l.next.NonceAt(ctx, account, block)
}

func (l Layer) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return l.next.PendingNonceAt(ctx, account)
}

func (l Layer) CodeAt(ctx context.Context, account common.Address, block *big.Int) ([]byte, error) {
	return l.next.CodeAt(ctx, account, block)
}

func (l Layer) StorageAt(ctx context.Context, account common.Address, key common.Hash, block *big.Int) ([]byte, error) {
	return l.next.StorageAt(ctx, account, key, block)
}

func (l Layer) GasPrice(ctx context.Context) (*big.Int, error) { return l.next.GasPrice(ctx) }

func (l Layer) EstimateEIP1559Fees(ctx context.Context) (*big.Int, *big.Int, error) {
	return l.next.EstimateEIP1559Fees(ctx)
}

func (l Layer) CallContract(ctx context.Context, req *types.Request, block *big.Int) ([]byte, error) {
	return l.next.CallContract(ctx, req, block)
}

func (l Layer) EstimateGas(ctx context.Context, req *types.Request) (uint64, error) {
	return l.next.EstimateGas(ctx, req)
}

func (l Layer) FillTransaction(ctx context.Context, req *types.Request) error {
	return l.next.FillTransaction(ctx, req)
}

func (l Layer) SignTransaction(ctx context.Context, req *types.Request) ([]byte, error) {
	return l.next.SignTransaction(ctx, req)
}

func (l Layer) SignMessage(ctx context.Context, from common.Address, data []byte) ([]byte, error) {
	return l.next.SignMessage(ctx, from, data)
}

func (l Layer) SendTransaction(ctx context.Context, req *types.Request) (common.Hash, error) {
	return l.next.SendTransaction(ctx, req)
}

func (l Layer) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	return l.next.SendRawTransaction(ctx, raw)
}

func (l Layer) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error) {
	return l.next.FilterLogs(ctx, q)
}

func (l Layer) QueryLogs(ctx context.Context, q ethereum.FilterQuery, pageSize uint64) LogIterator {
	return l.next.QueryLogs(ctx, q, pageSize)
}

func (l Layer) NewLogFilter(ctx context.Context, q ethereum.FilterQuery) (string, error) {
	return l.next.NewLogFilter(ctx, q)
}

func (l Layer) NewBlockFilter(ctx context.Context) (string, error) {
	return l.next.NewBlockFilter(ctx)
}

func (l Layer) FilterChanges(ctx context.Context, id string) ([]ethtypes.Log, error) {
	return l.next.FilterChanges(ctx, id)
}

func (l Layer) BlockFilterChanges(ctx context.Context, id string) ([]common.Hash, error) {
	return l.next.BlockFilterChanges(ctx, id)
}

func (l Layer) UninstallFilter(ctx context.Context, id string) (bool, error) {
	return l.next.UninstallFilter(ctx, id)
}

func (l Layer) ResolveName(ctx context.Context, name string) (common.Address, error) {
	return l.next.ResolveName(ctx, name)
}

func (l Layer) LookupAddress(ctx context.Context, addr common.Address) (string, error) {
	return l.next.LookupAddress(ctx, addr)
}
