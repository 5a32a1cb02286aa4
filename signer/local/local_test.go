package local

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethlayer/ethlayer/types"
)

func uint64Ptr(v uint64) *uint64 { return &v }

func TestNewDerivesAddress(t *testing.T) {
	// Well-known test vector: the all-ones key.
	s, err := New("0101010101010101010101010101010101010101010101010101010101010101", 1)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x1a642f0e3c3af545e7acbd38b07251b3990914f1"), s.Address())
}

func TestNewRejectsMalformedKey(t *testing.T) {
	_, err := New("not-a-key", 1)
	require.Error(t, err)
}

func TestWithChainIDReturnsCopy(t *testing.T) {
	s, err := Generate(1)
	require.NoError(t, err)

	bound := s.WithChainID(1337)
	assert.Equal(t, uint64(1337), bound.ChainID())
	assert.Equal(t, uint64(1), s.ChainID())
	assert.Equal(t, s.Address(), bound.Address())
}

func TestSignTransactionRecoversSender(t *testing.T) {
	s, err := Generate(1337)
	require.NoError(t, err)

	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	req := &types.Request{
		To:       types.Addr(to),
		Nonce:    uint64Ptr(0),
		Gas:      uint64Ptr(21000),
		GasPrice: big.NewInt(1_000_000_000),
		Value:    big.NewInt(1),
	}

	raw, err := s.SignTransaction(context.Background(), req)
	require.NoError(t, err)

	var tx ethtypes.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))
	sender, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(big.NewInt(1337)), &tx)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), sender)
}

func TestSignTransactionRejectsForeignChainID(t *testing.T) {
	s, err := Generate(1337)
	require.NoError(t, err)

	req := &types.Request{
		Nonce:    uint64Ptr(0),
		Gas:      uint64Ptr(21000),
		GasPrice: big.NewInt(1),
		ChainID:  uint64Ptr(1),
	}
	_, err = s.SignTransaction(context.Background(), req)
	require.Error(t, err)
}

func TestSignTransactionAdoptsChainIDOnCopy(t *testing.T) {
	s, err := Generate(1337)
	require.NoError(t, err)

	req := &types.Request{
		Nonce:    uint64Ptr(0),
		Gas:      uint64Ptr(21000),
		GasPrice: big.NewInt(1),
	}
	_, err = s.SignTransaction(context.Background(), req)
	require.NoError(t, err)
	// The caller's request is not stamped.
	assert.Nil(t, req.ChainID)
}

func TestSignMessageVerifies(t *testing.T) {
	s, err := Generate(1)
	require.NoError(t, err)

	msg := []byte("hello world")
	sig, err := s.SignMessage(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.GreaterOrEqual(t, sig[64], byte(27))

	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	recovery := make([]byte, 65)
	copy(recovery, sig)
	recovery[64] -= 27
	pub, err := crypto.SigToPub(crypto.Keccak256([]byte(prefixed)), recovery)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), crypto.PubkeyToAddress(*pub))
}
