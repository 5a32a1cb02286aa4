// Package local implements the signing capability with an in-memory
// secp256k1 key. Key management beyond holding the key is out of scope;
// hardware or remote signers satisfy the same interface.
package local

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/ethlayer/ethlayer/core/middleware"
	"github.com/ethlayer/ethlayer/types"
)

var _ middleware.Signer = (*Signer)(nil)

// Signer signs transactions and messages with a locally-held private key.
// Immutable after construction; safe to share across concurrent calls.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID uint64
}

// New parses a hex-encoded private key.
func New(hexKey string, chainID uint64) (*Signer, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return FromKey(key, chainID), nil
}

// FromKey wraps an existing private key.
func FromKey(key *ecdsa.PrivateKey, chainID uint64) *Signer {
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
	}
}

// Generate creates a signer with a fresh random key, for tests and tooling.
func Generate(chainID uint64) (*Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return FromKey(key, chainID), nil
}

// Address returns the address derived from the key.
func (s *Signer) Address() common.Address { return s.address }

// ChainID returns the chain the signer is configured for.
func (s *Signer) ChainID() uint64 { return s.chainID }

// WithChainID returns a copy of the signer bound to the given chain.
func (s *Signer) WithChainID(id uint64) middleware.Signer {
	return &Signer{key: s.key, address: s.address, chainID: id}
}

// SignTransaction signs a fully-populated request and returns the raw signed
// encoding. A request without a chain id adopts the signer's; a conflicting
// chain id is an error.
func (s *Signer) SignTransaction(ctx context.Context, req *types.Request) ([]byte, error) {
	if req.ChainID != nil && *req.ChainID != s.chainID {
		return nil, fmt.Errorf("transaction chain id %d does not match signer chain id %d", *req.ChainID, s.chainID)
	}
	if req.ChainID == nil {
		req = req.Clone()
		id := s.chainID
		req.ChainID = &id
	}

	txData, err := req.TxData()
	if err != nil {
		return nil, err
	}
	tx := ethtypes.NewTx(txData)
	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(new(big.Int).SetUint64(s.chainID)), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed.MarshalBinary()
}

// SignMessage signs data with the EIP-191 personal-message prefix.
func (s *Signer) SignMessage(ctx context.Context, data []byte) ([]byte, error) {
	msg := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(data), data)
	sig, err := crypto.Sign(crypto.Keccak256([]byte(msg)), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	// Shift the recovery id into the 27/28 range expected by on-chain
	// verifiers.
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}
