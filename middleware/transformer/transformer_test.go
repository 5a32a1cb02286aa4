package transformer

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethlayer/ethlayer/provider"
	"github.com/ethlayer/ethlayer/transport/mocktransport"
	"github.com/ethlayer/ethlayer/types"
)

var (
	proxyAddr  = common.HexToAddress("0x4444444444444444444444444444444444444444")
	targetAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestDsProxyTransformWrapsCall(t *testing.T) {
	d := NewDsProxy(proxyAddr)
	callData := []byte{0xde, 0xad, 0xbe, 0xef}

	req := &types.Request{
		To:    types.Addr(targetAddr),
		Data:  callData,
		Value: big.NewInt(5),
	}
	require.NoError(t, d.Transform(req))

	// The call is redirected to the proxy; value rides along.
	assert.Equal(t, proxyAddr, *req.ToAddr())
	assert.Equal(t, int64(5), req.Value.Int64())

	// The payload is execute(address,bytes) carrying the original call.
	method, err := proxyABI.MethodById(req.Data[:4])
	require.NoError(t, err)
	assert.Equal(t, "execute", method.RawName)

	args, err := method.Inputs.Unpack(req.Data[4:])
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, targetAddr, args[0].(common.Address))
	assert.Equal(t, callData, args[1].([]byte))
}

func TestDsProxyTransformRequiresTarget(t *testing.T) {
	d := NewDsProxy(proxyAddr)

	err := d.Transform(&types.Request{Data: []byte{0x01}})
	require.ErrorIs(t, err, ErrMissingField)

	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "to", missing.Field)
}

func TestDsProxyTransformRequiresResolvedTarget(t *testing.T) {
	d := NewDsProxy(proxyAddr)

	err := d.Transform(&types.Request{To: types.Name("vault.eth")})
	require.ErrorIs(t, err, types.ErrUnresolvedName)
}

func TestDsProxyExecuteCode(t *testing.T) {
	d := NewDsProxy(proxyAddr)
	code := []byte{0x60, 0x60, 0x60, 0x40}
	callData := []byte{0x01, 0x02}

	req, err := d.ExecuteCode(code, callData)
	require.NoError(t, err)
	assert.Equal(t, proxyAddr, *req.ToAddr())

	method, err := proxyABI.MethodById(req.Data[:4])
	require.NoError(t, err)
	assert.Equal(t, "execute", method.RawName)

	args, err := method.Inputs.Unpack(req.Data[4:])
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, code, args[0].([]byte))
	assert.Equal(t, callData, args[1].([]byte))
}

func TestMiddlewareSendRewritesClone(t *testing.T) {
	hash := common.HexToHash("0xabc0000000000000000000000000000000000000000000000000000000000001")
	mt := mocktransport.New().
		Respond("eth_gasPrice", "0x1").
		Respond("eth_estimateGas", "0x5208").
		Respond("eth_sendTransaction", hash)
	m := New(provider.NewProvider(mt), NewDsProxy(proxyAddr))

	req := &types.Request{To: types.Addr(targetAddr), Data: []byte{0x01}}
	got, err := m.SendTransaction(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, hash, got)

	// The broadcast transaction targets the proxy.
	calls := mt.Calls()
	raw, err := json.Marshal(calls[len(calls)-1].Params[0])
	require.NoError(t, err)
	var args struct {
		To *common.Address `json:"to"`
	}
	require.NoError(t, json.Unmarshal(raw, &args))
	require.NotNil(t, args.To)
	assert.Equal(t, proxyAddr, *args.To)

	// The caller's request is untouched.
	assert.Equal(t, targetAddr, *req.ToAddr())
	assert.Equal(t, []byte{0x01}, req.Data)
}

func TestMiddlewareFillRewritesInPlace(t *testing.T) {
	mt := mocktransport.New().
		Respond("eth_gasPrice", "0x1").
		Respond("eth_estimateGas", "0x5208")
	m := New(provider.NewProvider(mt), NewDsProxy(proxyAddr))

	req := &types.Request{To: types.Addr(targetAddr), Data: []byte{0x01}}
	require.NoError(t, m.FillTransaction(context.Background(), req))

	// The fill prices the rewritten call, so the request reflects it.
	assert.Equal(t, proxyAddr, *req.ToAddr())
	assert.NotNil(t, req.Gas)
}

func TestMiddlewareSendSurfacesTransformError(t *testing.T) {
	mt := mocktransport.New()
	m := New(provider.NewProvider(mt), NewDsProxy(proxyAddr))

	_, err := m.SendTransaction(context.Background(), &types.Request{})
	require.ErrorIs(t, err, ErrMissingField)
	assert.Empty(t, mt.Calls())
}
