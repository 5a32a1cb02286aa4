package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uint64Ptr(v uint64) *uint64 { return &v }

func TestCloneIsDeep(t *testing.T) {
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	req := &Request{
		Type:     LegacyTxType,
		From:     &from,
		To:       Addr(to),
		Data:     []byte{0xde, 0xad},
		Value:    big.NewInt(100),
		Gas:      uint64Ptr(21000),
		GasPrice: big.NewInt(1_000_000_000),
		Nonce:    uint64Ptr(7),
		ChainID:  uint64Ptr(1),
	}

	cp := req.Clone()
	require.Equal(t, req, cp)

	cp.Data[0] = 0xff
	cp.GasPrice.SetUint64(5)
	*cp.Nonce = 9
	cp.SetTo(common.HexToAddress("0x3333333333333333333333333333333333333333"))

	assert.Equal(t, byte(0xde), req.Data[0])
	assert.Equal(t, uint64(1_000_000_000), req.GasPrice.Uint64())
	assert.Equal(t, uint64(7), *req.Nonce)
	assert.Equal(t, to, *req.ToAddr())
}

func TestCloneNil(t *testing.T) {
	var req *Request
	assert.Nil(t, req.Clone())
}

func TestPricesSet(t *testing.T) {
	legacy := &Request{Type: LegacyTxType}
	assert.False(t, legacy.PricesSet())
	legacy.GasPrice = big.NewInt(1)
	assert.True(t, legacy.PricesSet())

	dynamic := &Request{Type: DynamicFeeTxType, GasFeeCap: big.NewInt(2)}
	assert.False(t, dynamic.PricesSet())
	dynamic.GasTipCap = big.NewInt(1)
	assert.True(t, dynamic.PricesSet())
}

func TestTxDataMissingFields(t *testing.T) {
	cases := []struct {
		name string
		req  *Request
		want error
	}{
		{"missing nonce", &Request{}, ErrMissingNonce},
		{"missing gas", &Request{Nonce: uint64Ptr(0)}, ErrMissingGas},
		{"missing gas price", &Request{Nonce: uint64Ptr(0), Gas: uint64Ptr(21000)}, ErrMissingGasPrice},
		{"missing fee cap", &Request{Type: DynamicFeeTxType, Nonce: uint64Ptr(0), Gas: uint64Ptr(21000)}, ErrMissingFeeCap},
		{"missing tip cap", &Request{Type: DynamicFeeTxType, Nonce: uint64Ptr(0), Gas: uint64Ptr(21000), GasFeeCap: big.NewInt(1)}, ErrMissingTipCap},
		{"unresolved name", &Request{Nonce: uint64Ptr(0), Gas: uint64Ptr(21000), To: Name("vitalik.eth")}, ErrUnresolvedName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.req.TxData()
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTxDataVariants(t *testing.T) {
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")

	legacy := &Request{
		Type:     LegacyTxType,
		To:       Addr(to),
		Nonce:    uint64Ptr(3),
		Gas:      uint64Ptr(21000),
		GasPrice: big.NewInt(1_000_000_000),
		Value:    big.NewInt(10),
	}
	data, err := legacy.TxData()
	require.NoError(t, err)
	lt, ok := data.(*ethtypes.LegacyTx)
	require.True(t, ok)
	assert.Equal(t, uint64(3), lt.Nonce)
	assert.Equal(t, to, *lt.To)

	dynamic := &Request{
		Type:      DynamicFeeTxType,
		To:        Addr(to),
		Nonce:     uint64Ptr(3),
		Gas:       uint64Ptr(21000),
		GasFeeCap: big.NewInt(30),
		GasTipCap: big.NewInt(2),
		ChainID:   uint64Ptr(1337),
	}
	data, err = dynamic.TxData()
	require.NoError(t, err)
	dt, ok := data.(*ethtypes.DynamicFeeTx)
	require.True(t, ok)
	assert.Equal(t, uint64(1337), dt.ChainID.Uint64())
	assert.Equal(t, int64(30), dt.GasFeeCap.Int64())

	accessList := &Request{
		Type:       AccessListTxType,
		To:         Addr(to),
		Nonce:      uint64Ptr(0),
		Gas:        uint64Ptr(30000),
		GasPrice:   big.NewInt(5),
		AccessList: ethtypes.AccessList{{Address: to}},
	}
	data, err = accessList.TxData()
	require.NoError(t, err)
	at, ok := data.(*ethtypes.AccessListTx)
	require.True(t, ok)
	assert.Len(t, at.AccessList, 1)
}

func TestRPCArgsOmitsUnsetFields(t *testing.T) {
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	req := &Request{
		To:       Addr(to),
		GasPrice: big.NewInt(1_000_000_000),
		Data:     []byte{0x01},
	}

	raw, err := json.Marshal(req.RPCArgs())
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Equal(t, "0x3b9aca00", fields["gasPrice"])
	assert.Equal(t, "0x01", fields["input"])
	assert.Contains(t, fields, "to")
	assert.NotContains(t, fields, "from")
	assert.NotContains(t, fields, "gas")
	assert.NotContains(t, fields, "nonce")
	assert.NotContains(t, fields, "maxFeePerGas")
}

func TestRPCArgsOmitsUnresolvedName(t *testing.T) {
	req := &Request{To: Name("vitalik.eth")}

	raw, err := json.Marshal(req.RPCArgs())
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "to")
}
