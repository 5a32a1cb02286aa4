package transformer

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ethlayer/ethlayer/types"
)

// dsProxyABI covers the two execute overloads: calling an existing target
// contract, or deploying code and calling the fresh deployment.
const dsProxyABI = `[
	{"name":"execute","type":"function","stateMutability":"payable",
	 "inputs":[{"name":"_target","type":"address"},{"name":"_data","type":"bytes"}],
	 "outputs":[{"name":"response","type":"bytes32"}]},
	{"name":"execute","type":"function","stateMutability":"payable",
	 "inputs":[{"name":"_code","type":"bytes"},{"name":"_data","type":"bytes"}],
	 "outputs":[{"name":"target","type":"address"},{"name":"response","type":"bytes32"}]}
]`

var proxyABI = mustParseABI(dsProxyABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

var _ Transformer = (*DsProxy)(nil)

// DsProxy rewrites transactions to run through a DSProxy contract: the
// original call becomes the payload of execute(address,bytes), executed in
// the proxy's context via delegatecall. Value transfers are preserved.
type DsProxy struct {
	address common.Address
}

// NewDsProxy wraps an already-deployed proxy at the given address.
func NewDsProxy(address common.Address) *DsProxy {
	return &DsProxy{address: address}
}

// Address returns the proxy contract's address.
func (d *DsProxy) Address() common.Address { return d.address }

// Transform redirects the request through the proxy. The request must name a
// target address; a request with no target, or a target still in ENS-name
// form, cannot be encoded.
func (d *DsProxy) Transform(req *types.Request) error {
	if req.To == nil {
		return &MissingFieldError{Field: "to"}
	}
	if req.To.IsName() {
		return types.ErrUnresolvedName
	}
	target := req.ToAddr()
	if target == nil {
		return &MissingFieldError{Field: "to"}
	}

	data, err := proxyABI.Pack("execute", *target, req.Data)
	if err != nil {
		return err
	}
	req.Data = data
	req.SetTo(d.address)
	return nil
}

// ExecuteCode builds a request that deploys code through the proxy and runs
// data against the fresh deployment, via execute(bytes,bytes).
func (d *DsProxy) ExecuteCode(code, data []byte) (*types.Request, error) {
	calldata, err := proxyABI.Pack("execute0", code, data)
	if err != nil {
		return nil, err
	}
	req := &types.Request{Data: calldata}
	req.SetTo(d.address)
	return req, nil
}
