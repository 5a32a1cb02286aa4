// Package provider implements the terminal layer of the middleware stack: it
// turns every catalog operation into a single JSON-RPC call through a
// Transport, and carries the default implementations of transaction filling,
// fee estimation, ENS resolution and paginated log retrieval that the layers
// above inherit.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/ethlayer/ethlayer/core/middleware"
	"github.com/ethlayer/ethlayer/types"
)

var _ middleware.Middleware = (*Provider)(nil)

// Provider is the base provider. It has no inner layer; all behavior bottoms
// out in transport calls. Safe for concurrent use: the only mutable state is
// owned per-call.
type Provider struct {
	transport     middleware.Transport
	defaultSender *common.Address
	ensRegistry   *common.Address
	logger        zerolog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithDefaultSender sets the address injected into the from field of
// transactions that leave it unset.
func WithDefaultSender(addr common.Address) Option {
	return func(p *Provider) { p.defaultSender = &addr }
}

// WithENSRegistry sets the ENS registry contract used for name resolution.
// Without it, name resolution fails with ErrENSNotConfigured.
func WithENSRegistry(addr common.Address) Option {
	return func(p *Provider) { p.ensRegistry = &addr }
}

// WithLogger attaches a structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.logger = l.With().Str("component", "provider").Logger() }
}

// NewProvider creates a base provider over the given transport.
func NewProvider(t middleware.Transport, opts ...Option) *Provider {
	p := &Provider{
		transport: t,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Inner returns nil: the provider is the terminal layer. Compositions must
// never call through it.
func (p *Provider) Inner() middleware.Middleware { return nil }

// DefaultSender returns the configured default sender, if any.
func (p *Provider) DefaultSender() *common.Address { return p.defaultSender }

// Close releases the underlying transport.
func (p *Provider) Close() { p.transport.Close() }

func (p *Provider) ChainID(ctx context.Context) (uint64, error) {
	var result hexutil.Big
	if err := p.transport.Request(ctx, &result, "eth_chainId"); err != nil {
		return 0, opErr("eth_chainId", err)
	}
	return (*big.Int)(&result).Uint64(), nil
}

func (p *Provider) BlockNumber(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	if err := p.transport.Request(ctx, &result, "eth_blockNumber"); err != nil {
		return 0, opErr("eth_blockNumber", err)
	}
	return uint64(result), nil
}

func (p *Provider) HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error) {
	var head *ethtypes.Header
	if err := p.transport.Request(ctx, &head, "eth_getBlockByNumber", toBlockNumArg(number), false); err != nil {
		return nil, opErr("eth_getBlockByNumber", err)
	}
	if head == nil {
		return nil, opErr("eth_getBlockByNumber", ethereum.NotFound)
	}
	return head, nil
}

func (p *Provider) HeaderByHash(ctx context.Context, hash common.Hash) (*ethtypes.Header, error) {
	var head *ethtypes.Header
	if err := p.transport.Request(ctx, &head, "eth_getBlockByHash", hash, false); err != nil {
		return nil, opErr("eth_getBlockByHash", err)
	}
	if head == nil {
		return nil, opErr("eth_getBlockByHash", ethereum.NotFound)
	}
	return head, nil
}

func (p *Provider) BlockByNumber(ctx context.Context, number *big.Int) (*ethtypes.Block, error) {
	return p.getBlock(ctx, "eth_getBlockByNumber", toBlockNumArg(number), true)
}

func (p *Provider) BlockByHash(ctx context.Context, hash common.Hash) (*ethtypes.Block, error) {
	return p.getBlock(ctx, "eth_getBlockByHash", hash, true)
}

// getBlock reassembles a full block from the JSON body. Uncle bodies are not
// fetched; post-merge chains have none.
func (p *Provider) getBlock(ctx context.Context, method string, args ...any) (*ethtypes.Block, error) {
	var raw json.RawMessage
	if err := p.transport.Request(ctx, &raw, method, args...); err != nil {
		return nil, opErr(method, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, opErr(method, ethereum.NotFound)
	}
	var head ethtypes.Header
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, opErr(method, err)
	}
	var body struct {
		Transactions []*ethtypes.Transaction `json:"transactions"`
		Withdrawals  []*ethtypes.Withdrawal  `json:"withdrawals"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, opErr(method, err)
	}
	return ethtypes.NewBlockWithHeader(&head).WithBody(ethtypes.Body{
		Transactions: body.Transactions,
		Withdrawals:  body.Withdrawals,
	}), nil
}

func (p *Provider) TransactionByHash(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error) {
	var raw json.RawMessage
	if err := p.transport.Request(ctx, &raw, "eth_getTransactionByHash", hash); err != nil {
		return nil, false, opErr("eth_getTransactionByHash", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false, opErr("eth_getTransactionByHash", ethereum.NotFound)
	}
	var tx ethtypes.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, false, opErr("eth_getTransactionByHash", err)
	}
	// Block context lives in the RPC envelope, not in the transaction body;
	// a transaction without a block hash is still pending.
	var envelope struct {
		BlockHash *common.Hash `json:"blockHash"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, false, opErr("eth_getTransactionByHash", err)
	}
	return &tx, envelope.BlockHash == nil, nil
}

func (p *Provider) TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	var receipt *ethtypes.Receipt
	if err := p.transport.Request(ctx, &receipt, "eth_getTransactionReceipt", hash); err != nil {
		return nil, opErr("eth_getTransactionReceipt", err)
	}
	if receipt == nil {
		return nil, opErr("eth_getTransactionReceipt", ethereum.NotFound)
	}
	return receipt, nil
}

func (p *Provider) BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
	var result hexutil.Big
	if err := p.transport.Request(ctx, &result, "eth_getBalance", account, toBlockNumArg(block)); err != nil {
		return nil, opErr("eth_getBalance", err)
	}
	return (*big.Int)(&result), nil
}

func (p *Provider) NonceAt(ctx context.Context, account common.Address, block *big.Int) (uint64, error) {
	var result hexutil.Uint64
	if err := p.transport.Request(ctx, &result, "eth_getTransactionCount", account, toBlockNumArg(block)); err != nil {
		return 0, opErr("eth_getTransactionCount", err)
	}
	return uint64(result), nil
}

func (p *Provider) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var result hexutil.Uint64
	if err := p.transport.Request(ctx, &result, "eth_getTransactionCount", account, "pending"); err != nil {
		return 0, opErr("eth_getTransactionCount", err)
	}
	return uint64(result), nil
}

func (p *Provider) CodeAt(ctx context.Context, account common.Address, block *big.Int) ([]byte, error) {
	var result hexutil.Bytes
	if err := p.transport.Request(ctx, &result, "eth_getCode", account, toBlockNumArg(block)); err != nil {
		return nil, opErr("eth_getCode", err)
	}
	return result, nil
}

func (p *Provider) StorageAt(ctx context.Context, account common.Address, key common.Hash, block *big.Int) ([]byte, error) {
	var result hexutil.Bytes
	if err := p.transport.Request(ctx, &result, "eth_getStorageAt", account, key, toBlockNumArg(block)); err != nil {
		return nil, opErr("eth_getStorageAt", err)
	}
	return result, nil
}

func (p *Provider) GasPrice(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := p.transport.Request(ctx, &result, "eth_gasPrice"); err != nil {
		return nil, opErr("eth_gasPrice", err)
	}
	return (*big.Int)(&result), nil
}

func (p *Provider) CallContract(ctx context.Context, req *types.Request, block *big.Int) ([]byte, error) {
	var result hexutil.Bytes
	if err := p.transport.Request(ctx, &result, "eth_call", req.RPCArgs(), toBlockNumArg(block)); err != nil {
		return nil, opErr("eth_call", err)
	}
	return result, nil
}

func (p *Provider) EstimateGas(ctx context.Context, req *types.Request) (uint64, error) {
	var result hexutil.Uint64
	if err := p.transport.Request(ctx, &result, "eth_estimateGas", req.RPCArgs()); err != nil {
		return 0, opErr("eth_estimateGas", err)
	}
	return uint64(result), nil
}

// SignTransaction asks the node to sign with an unlocked account. Stacks that
// sign locally override this in the signer layer.
func (p *Provider) SignTransaction(ctx context.Context, req *types.Request) ([]byte, error) {
	var result hexutil.Bytes
	if err := p.transport.Request(ctx, &result, "eth_signTransaction", req.RPCArgs()); err != nil {
		return nil, opErr("eth_signTransaction", err)
	}
	return result, nil
}

// SignMessage asks the node to sign with an unlocked account.
func (p *Provider) SignMessage(ctx context.Context, from common.Address, data []byte) ([]byte, error) {
	var result hexutil.Bytes
	if err := p.transport.Request(ctx, &result, "eth_sign", from, hexutil.Bytes(data)); err != nil {
		return nil, opErr("eth_sign", err)
	}
	return result, nil
}

// SendTransaction fills the request and submits it for node-side signing.
func (p *Provider) SendTransaction(ctx context.Context, req *types.Request) (common.Hash, error) {
	if err := p.FillTransaction(ctx, req); err != nil {
		return common.Hash{}, err
	}
	var hash common.Hash
	if err := p.transport.Request(ctx, &hash, "eth_sendTransaction", req.RPCArgs()); err != nil {
		return common.Hash{}, opErr("eth_sendTransaction", err)
	}
	return hash, nil
}

func (p *Provider) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := p.transport.Request(ctx, &hash, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		return common.Hash{}, opErr("eth_sendRawTransaction", err)
	}
	return hash, nil
}

func (p *Provider) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error) {
	arg, err := toFilterArg(q)
	if err != nil {
		return nil, opErr("eth_getLogs", err)
	}
	var logs []ethtypes.Log
	if err := p.transport.Request(ctx, &logs, "eth_getLogs", arg); err != nil {
		return nil, opErr("eth_getLogs", err)
	}
	return logs, nil
}

func (p *Provider) NewLogFilter(ctx context.Context, q ethereum.FilterQuery) (string, error) {
	arg, err := toFilterArg(q)
	if err != nil {
		return "", opErr("eth_newFilter", err)
	}
	var id string
	if err := p.transport.Request(ctx, &id, "eth_newFilter", arg); err != nil {
		return "", opErr("eth_newFilter", err)
	}
	return id, nil
}

func (p *Provider) NewBlockFilter(ctx context.Context) (string, error) {
	var id string
	if err := p.transport.Request(ctx, &id, "eth_newBlockFilter"); err != nil {
		return "", opErr("eth_newBlockFilter", err)
	}
	return id, nil
}

func (p *Provider) FilterChanges(ctx context.Context, id string) ([]ethtypes.Log, error) {
	var logs []ethtypes.Log
	if err := p.transport.Request(ctx, &logs, "eth_getFilterChanges", id); err != nil {
		return nil, opErr("eth_getFilterChanges", err)
	}
	return logs, nil
}

func (p *Provider) BlockFilterChanges(ctx context.Context, id string) ([]common.Hash, error) {
	var hashes []common.Hash
	if err := p.transport.Request(ctx, &hashes, "eth_getFilterChanges", id); err != nil {
		return nil, opErr("eth_getFilterChanges", err)
	}
	return hashes, nil
}

func (p *Provider) UninstallFilter(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := p.transport.Request(ctx, &ok, "eth_uninstallFilter", id); err != nil {
		return false, opErr("eth_uninstallFilter", err)
	}
	return ok, nil
}

// FillTransaction populates every missing field except the nonce. Steps run
// in dependency order: the gas estimate issued last sees the sender, resolved
// recipient and fee fields filled by the earlier steps.
func (p *Provider) FillTransaction(ctx context.Context, req *types.Request) error {
	if req.From == nil && p.defaultSender != nil {
		sender := *p.defaultSender
		req.From = &sender
	}

	if req.To != nil && req.To.IsName() {
		addr, err := p.ResolveName(ctx, req.To.Name)
		if err != nil {
			return err
		}
		p.logger.Debug().Str("name", req.To.Name).Str("addr", addr.Hex()).Msg("resolved recipient name")
		req.SetTo(addr)
	}

	switch req.Type {
	case types.LegacyTxType, types.AccessListTxType:
		if req.GasPrice == nil {
			gasPrice, err := p.GasPrice(ctx)
			if err != nil {
				return err
			}
			req.GasPrice = gasPrice
		}
	case types.DynamicFeeTxType:
		// Both fee fields are set together from one estimate, never just one.
		if req.GasFeeCap == nil || req.GasTipCap == nil {
			gasFeeCap, gasTipCap, err := p.EstimateEIP1559Fees(ctx)
			if err != nil {
				return err
			}
			req.GasFeeCap = gasFeeCap
			req.GasTipCap = gasTipCap
		}
	}

	if req.Gas == nil {
		gas, err := p.EstimateGas(ctx, req)
		if err != nil {
			return err
		}
		req.Gas = &gas
	}
	return nil
}

// QueryLogs starts a paginated log retrieval. See LogQuery.
func (p *Provider) QueryLogs(ctx context.Context, q ethereum.FilterQuery, pageSize uint64) middleware.LogIterator {
	return newLogQuery(p, q, pageSize)
}

func toBlockNumArg(number *big.Int) string {
	if number == nil {
		return "latest"
	}
	if number.Sign() < 0 {
		return "pending"
	}
	return hexutil.EncodeBig(number)
}

type filterArg struct {
	FromBlock string           `json:"fromBlock,omitempty"`
	ToBlock   string           `json:"toBlock,omitempty"`
	Addresses []common.Address `json:"address"`
	Topics    [][]common.Hash  `json:"topics,omitempty"`
	BlockHash *common.Hash     `json:"blockHash,omitempty"`
}

func toFilterArg(q ethereum.FilterQuery) (any, error) {
	arg := filterArg{
		Addresses: q.Addresses,
		Topics:    q.Topics,
	}
	if q.BlockHash != nil {
		if q.FromBlock != nil || q.ToBlock != nil {
			return nil, errors.New("cannot specify both blockHash and from/to block filters")
		}
		arg.BlockHash = q.BlockHash
	} else {
		arg.FromBlock = "0x0"
		if q.FromBlock != nil {
			arg.FromBlock = toBlockNumArg(q.FromBlock)
		}
		arg.ToBlock = toBlockNumArg(q.ToBlock)
	}
	if arg.Addresses == nil {
		arg.Addresses = []common.Address{}
	}
	return arg, nil
}
