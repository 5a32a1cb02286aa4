package signer

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethlayer/ethlayer/provider"
	"github.com/ethlayer/ethlayer/signer/local"
	"github.com/ethlayer/ethlayer/transport/mocktransport"
	"github.com/ethlayer/ethlayer/types"
)

const testChainID = 1337

var testTo = common.HexToAddress("0x2222222222222222222222222222222222222222")

func newTestStack(t *testing.T) (*Middleware, *local.Signer, *mocktransport.Transport) {
	t.Helper()
	s, err := local.Generate(testChainID)
	require.NoError(t, err)
	mt := mocktransport.New()
	return New(provider.NewProvider(mt), s), s, mt
}

func uint64Ptr(v uint64) *uint64 { return &v }

func TestDefaultSenderIsSignerAddress(t *testing.T) {
	m, s, _ := newTestStack(t)
	require.NotNil(t, m.DefaultSender())
	assert.Equal(t, s.Address(), *m.DefaultSender())
}

func TestNewWithProviderChain(t *testing.T) {
	s, err := local.Generate(1)
	require.NoError(t, err)
	mt := mocktransport.New().Respond("eth_chainId", "0x539")

	m, err := NewWithProviderChain(context.Background(), provider.NewProvider(mt), s)
	require.NoError(t, err)
	assert.Equal(t, uint64(testChainID), m.Signer().ChainID())
	// The original signer is untouched.
	assert.Equal(t, uint64(1), s.ChainID())
}

func TestChainIDMismatchFailsBeforeAnyTransportCall(t *testing.T) {
	m, _, mt := newTestStack(t)

	req := &types.Request{To: types.Addr(testTo), ChainID: uint64Ptr(999)}
	_, err := m.SendTransaction(context.Background(), req)
	require.ErrorIs(t, err, ErrChainIDMismatch)
	assert.Empty(t, mt.Calls())
}

func TestFillStampsChainIDAndNonce(t *testing.T) {
	m, s, mt := newTestStack(t)
	mt.Respond("eth_getTransactionCount", "0x5").
		Respond("eth_gasPrice", "0x3b9aca00").
		Respond("eth_estimateGas", "0x5208")

	req := &types.Request{To: types.Addr(testTo)}
	require.NoError(t, m.FillTransaction(context.Background(), req))

	assert.Equal(t, s.Address(), *req.From)
	assert.Equal(t, uint64(testChainID), *req.ChainID)
	assert.Equal(t, uint64(5), *req.Nonce)

	// The nonce comes off the pending state so queued transactions stack.
	calls := mt.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "eth_getTransactionCount", calls[0].Method)
	assert.Equal(t, "pending", calls[0].Params[1])
}

func TestFillKeepsExplicitNonce(t *testing.T) {
	m, _, mt := newTestStack(t)
	mt.Respond("eth_gasPrice", "0x1").
		Respond("eth_estimateGas", "0x5208")

	req := &types.Request{To: types.Addr(testTo), Nonce: uint64Ptr(42)}
	require.NoError(t, m.FillTransaction(context.Background(), req))

	assert.Equal(t, uint64(42), *req.Nonce)
	assert.Equal(t, 0, mt.CallCount("eth_getTransactionCount"))
}

func TestSignTransactionRejectsForeignSender(t *testing.T) {
	m, _, mt := newTestStack(t)

	other := common.HexToAddress("0x3333333333333333333333333333333333333333")
	req := &types.Request{From: &other, To: types.Addr(testTo)}
	_, err := m.SignTransaction(context.Background(), req)
	require.ErrorIs(t, err, ErrWrongSigner)
	assert.Empty(t, mt.Calls())
}

func TestSignMessageRejectsForeignSender(t *testing.T) {
	m, _, _ := newTestStack(t)

	other := common.HexToAddress("0x3333333333333333333333333333333333333333")
	_, err := m.SignMessage(context.Background(), other, []byte("hello"))
	require.ErrorIs(t, err, ErrWrongSigner)
}

func TestSendTransactionSignsLocally(t *testing.T) {
	m, s, mt := newTestStack(t)
	hash := common.HexToHash("0xabc0000000000000000000000000000000000000000000000000000000000001")
	mt.Respond("eth_getTransactionCount", "0x0").
		Respond("eth_gasPrice", "0x3b9aca00").
		Respond("eth_estimateGas", "0x5208").
		Respond("eth_sendRawTransaction", hash)

	req := &types.Request{To: types.Addr(testTo), Value: big.NewInt(1)}
	got, err := m.SendTransaction(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, hash, got)

	// Broadcast goes out as a raw signed transaction, never through
	// node-side signing.
	assert.Equal(t, 1, mt.CallCount("eth_sendRawTransaction"))
	assert.Equal(t, 0, mt.CallCount("eth_sendTransaction"))

	// The raw payload recovers to the signer's address.
	calls := mt.Calls()
	rawParam := calls[len(calls)-1].Params[0]
	raw, ok := rawParam.(interface{ String() string })
	require.True(t, ok)
	var tx ethtypes.Transaction
	require.NoError(t, tx.UnmarshalBinary(common.FromHex(raw.String())))
	sender, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(big.NewInt(testChainID)), &tx)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), sender)

	// The caller's request is left untouched.
	assert.Nil(t, req.Nonce)
	assert.Nil(t, req.GasPrice)
}

func TestCallContractInjectsSender(t *testing.T) {
	m, s, mt := newTestStack(t)
	mt.Respond("eth_call", "0x01")

	req := &types.Request{To: types.Addr(testTo)}
	_, err := m.CallContract(context.Background(), req, nil)
	require.NoError(t, err)

	calls := mt.Calls()
	require.Len(t, calls, 1)
	raw, err := json.Marshal(calls[0].Params[0])
	require.NoError(t, err)
	var args struct {
		From *common.Address `json:"from"`
	}
	require.NoError(t, json.Unmarshal(raw, &args))
	require.NotNil(t, args.From)
	assert.Equal(t, s.Address(), *args.From)

	// The caller's request stays sender-less.
	assert.Nil(t, req.From)
}
