package types

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// TxType selects the wire format of a transaction request.
type TxType uint8

const (
	// LegacyTxType is a pre-EIP-2718 transaction priced with a single gas price.
	LegacyTxType TxType = iota
	// AccessListTxType is an EIP-2930 transaction: gas price plus access list.
	AccessListTxType
	// DynamicFeeTxType is an EIP-1559 transaction priced with a fee cap and a tip cap.
	DynamicFeeTxType
)

// Errors returned when converting an under-specified request into a signable transaction.
var (
	ErrMissingNonce    = errors.New("no nonce was specified")
	ErrMissingGas      = errors.New("no gas limit was specified")
	ErrMissingGasPrice = errors.New("no gas price was specified")
	ErrMissingFeeCap   = errors.New("no max fee per gas was specified")
	ErrMissingTipCap   = errors.New("no max priority fee per gas was specified")
	ErrUnresolvedName  = errors.New("recipient name has not been resolved to an address")
)

// NameOrAddress is a transaction target that is either a resolved address or a
// symbolic name still pending resolution.
type NameOrAddress struct {
	Name string
	Addr *common.Address
}

// Name returns a target referring to a symbolic name.
func Name(name string) *NameOrAddress {
	return &NameOrAddress{Name: name}
}

// Addr returns a target referring to a concrete address.
func Addr(addr common.Address) *NameOrAddress {
	return &NameOrAddress{Addr: &addr}
}

// IsName reports whether the target still needs name resolution.
func (n *NameOrAddress) IsName() bool {
	return n != nil && n.Addr == nil && n.Name != ""
}

// Request is a partially-specified transaction. Optional fields are pointers;
// a nil field means "fill me in". The filling pipeline populates every field
// except Nonce, which is left to the signer layer or the caller.
type Request struct {
	Type TxType

	From  *common.Address
	To    *NameOrAddress
	Data  []byte
	Value *big.Int

	Gas      *uint64
	GasPrice *big.Int // legacy and access-list variants

	GasFeeCap *big.Int // dynamic-fee variant
	GasTipCap *big.Int // dynamic-fee variant

	Nonce   *uint64
	ChainID *uint64

	AccessList ethtypes.AccessList // access-list and dynamic-fee variants
}

// Clone returns a deep copy of the request. Layers that mutate a request
// before delegating operate on a copy so the caller's view stays stable.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	cp := *r
	if r.From != nil {
		from := *r.From
		cp.From = &from
	}
	if r.To != nil {
		to := *r.To
		if r.To.Addr != nil {
			addr := *r.To.Addr
			to.Addr = &addr
		}
		cp.To = &to
	}
	if r.Data != nil {
		cp.Data = append([]byte(nil), r.Data...)
	}
	cp.Value = cloneBig(r.Value)
	if r.Gas != nil {
		gas := *r.Gas
		cp.Gas = &gas
	}
	cp.GasPrice = cloneBig(r.GasPrice)
	cp.GasFeeCap = cloneBig(r.GasFeeCap)
	cp.GasTipCap = cloneBig(r.GasTipCap)
	if r.Nonce != nil {
		nonce := *r.Nonce
		cp.Nonce = &nonce
	}
	if r.ChainID != nil {
		id := *r.ChainID
		cp.ChainID = &id
	}
	if r.AccessList != nil {
		cp.AccessList = append(ethtypes.AccessList(nil), r.AccessList...)
	}
	return &cp
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// ToAddr returns the resolved recipient address, or nil if the request has no
// recipient or the recipient is an unresolved name.
func (r *Request) ToAddr() *common.Address {
	if r.To == nil {
		return nil
	}
	return r.To.Addr
}

// SetTo replaces the recipient with a concrete address.
func (r *Request) SetTo(addr common.Address) {
	r.To = Addr(addr)
}

// PricesSet reports whether every price field required by the variant is set.
func (r *Request) PricesSet() bool {
	if r.Type == DynamicFeeTxType {
		return r.GasFeeCap != nil && r.GasTipCap != nil
	}
	return r.GasPrice != nil
}

// rpcArgs is the JSON shape of a transaction for eth_call, eth_estimateGas
// and eth_sendTransaction.
type rpcArgs struct {
	From                 *common.Address      `json:"from,omitempty"`
	To                   *common.Address      `json:"to,omitempty"`
	Gas                  *hexutil.Uint64      `json:"gas,omitempty"`
	GasPrice             *hexutil.Big         `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big         `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big         `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big         `json:"value,omitempty"`
	Nonce                *hexutil.Uint64      `json:"nonce,omitempty"`
	Input                *hexutil.Bytes       `json:"input,omitempty"`
	AccessList           *ethtypes.AccessList `json:"accessList,omitempty"`
	ChainID              *hexutil.Big         `json:"chainId,omitempty"`
}

// RPCArgs returns the request in the positional-argument form expected by the
// node. An unresolved name target is omitted; callers must resolve first.
func (r *Request) RPCArgs() any {
	args := &rpcArgs{
		From: r.From,
		To:   r.ToAddr(),
	}
	if r.Gas != nil {
		args.Gas = (*hexutil.Uint64)(r.Gas)
	}
	if r.GasPrice != nil {
		args.GasPrice = (*hexutil.Big)(r.GasPrice)
	}
	if r.GasFeeCap != nil {
		args.MaxFeePerGas = (*hexutil.Big)(r.GasFeeCap)
	}
	if r.GasTipCap != nil {
		args.MaxPriorityFeePerGas = (*hexutil.Big)(r.GasTipCap)
	}
	if r.Value != nil {
		args.Value = (*hexutil.Big)(r.Value)
	}
	if r.Nonce != nil {
		args.Nonce = (*hexutil.Uint64)(r.Nonce)
	}
	if len(r.Data) > 0 {
		data := hexutil.Bytes(r.Data)
		args.Input = &data
	}
	if len(r.AccessList) > 0 {
		al := r.AccessList
		args.AccessList = &al
	}
	if r.ChainID != nil {
		args.ChainID = (*hexutil.Big)(new(big.Int).SetUint64(*r.ChainID))
	}
	return args
}

// TxData converts a fully-populated request into go-ethereum transaction data
// ready for signing. Every field the variant requires must already be set.
func (r *Request) TxData() (ethtypes.TxData, error) {
	if r.Nonce == nil {
		return nil, ErrMissingNonce
	}
	if r.Gas == nil {
		return nil, ErrMissingGas
	}
	if r.To != nil && r.To.IsName() {
		return nil, ErrUnresolvedName
	}
	value := r.Value
	if value == nil {
		value = new(big.Int)
	}

	switch r.Type {
	case LegacyTxType:
		if r.GasPrice == nil {
			return nil, ErrMissingGasPrice
		}
		return &ethtypes.LegacyTx{
			Nonce:    *r.Nonce,
			GasPrice: r.GasPrice,
			Gas:      *r.Gas,
			To:       r.ToAddr(),
			Value:    value,
			Data:     r.Data,
		}, nil

	case AccessListTxType:
		if r.GasPrice == nil {
			return nil, ErrMissingGasPrice
		}
		chainID := new(big.Int)
		if r.ChainID != nil {
			chainID.SetUint64(*r.ChainID)
		}
		return &ethtypes.AccessListTx{
			ChainID:    chainID,
			Nonce:      *r.Nonce,
			GasPrice:   r.GasPrice,
			Gas:        *r.Gas,
			To:         r.ToAddr(),
			Value:      value,
			Data:       r.Data,
			AccessList: r.AccessList,
		}, nil

	case DynamicFeeTxType:
		if r.GasFeeCap == nil {
			return nil, ErrMissingFeeCap
		}
		if r.GasTipCap == nil {
			return nil, ErrMissingTipCap
		}
		chainID := new(big.Int)
		if r.ChainID != nil {
			chainID.SetUint64(*r.ChainID)
		}
		return &ethtypes.DynamicFeeTx{
			ChainID:    chainID,
			Nonce:      *r.Nonce,
			GasTipCap:  r.GasTipCap,
			GasFeeCap:  r.GasFeeCap,
			Gas:        *r.Gas,
			To:         r.ToAddr(),
			Value:      value,
			Data:       r.Data,
			AccessList: r.AccessList,
		}, nil
	}
	return nil, errors.New("unknown transaction type")
}
