package provider

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// testHeader builds a header that survives the JSON round trip through the
// scripted transport. BaseFee may be nil to model a pre-fee-market chain.
func testHeader(baseFee *big.Int) *ethtypes.Header {
	return &ethtypes.Header{
		Number:     big.NewInt(100),
		Difficulty: big.NewInt(0),
		BaseFee:    baseFee,
	}
}

func rewards(vals ...int64) [][]*hexutil.Big {
	out := make([][]*hexutil.Big, len(vals))
	for i, v := range vals {
		out[i] = []*hexutil.Big{(*hexutil.Big)(big.NewInt(v))}
	}
	return out
}

// abiAddress encodes an address the way an eth_call returns it: left-padded
// to one 32-byte word.
func abiAddress(addr common.Address) string {
	return "0x" + strings.Repeat("0", 24) + strings.ToLower(addr.Hex()[2:])
}

func abiBool(v bool) string {
	last := "0"
	if v {
		last = "1"
	}
	return "0x" + strings.Repeat("0", 63) + last
}

// abiString encodes a string return value: offset word, length word, padded
// payload.
func abiString(s string) string {
	payload := hexutil.Encode([]byte(s))[2:]
	if pad := len(payload) % 64; pad != 0 {
		payload += strings.Repeat("0", 64-pad)
	}
	length := hexutil.EncodeUint64(uint64(len(s)))[2:]
	return "0x" +
		strings.Repeat("0", 62) + "20" +
		strings.Repeat("0", 64-len(length)) + length +
		payload
}
