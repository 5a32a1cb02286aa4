package provider

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ethlayer/ethlayer/types"
)

const registryABI = `[
	{"name":"resolver","type":"function","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"}],
	 "outputs":[{"name":"","type":"address"}]}
]`

const resolverABI = `[
	{"name":"addr","type":"function","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"name":"name","type":"function","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"}],
	 "outputs":[{"name":"","type":"string"}]},
	{"name":"supportsInterface","type":"function","stateMutability":"view",
	 "inputs":[{"name":"interfaceID","type":"bytes4"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

var (
	ensRegistryABI = mustParseABI(registryABI)
	ensResolverABI = mustParseABI(resolverABI)

	addrInterfaceID = methodID("addr(bytes32)")
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

func methodID(sig string) [4]byte {
	var id [4]byte
	copy(id[:], crypto.Keccak256([]byte(sig))[:4])
	return id
}

// Namehash computes the EIP-137 hash of an ENS name.
func Namehash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		node = crypto.Keccak256Hash(node[:], labelHash)
	}
	return node
}

// ReverseName returns the ENS name used for reverse resolution of an address.
func ReverseName(addr common.Address) string {
	return strings.TrimPrefix(strings.ToLower(addr.Hex()), "0x") + ".addr.reverse"
}

// ResolveName resolves an ENS name to the address it points at.
func (p *Provider) ResolveName(ctx context.Context, name string) (common.Address, error) {
	resolver, err := p.resolverFor(ctx, name, true)
	if err != nil {
		return common.Address{}, err
	}

	out, err := p.ensCall(ctx, resolver, ensResolverABI, "addr", Namehash(name))
	if err != nil {
		return common.Address{}, &ENSError{Name: name, Reason: "addr lookup failed", Err: err}
	}
	var addr common.Address
	if err := ensResolverABI.UnpackIntoInterface(&addr, "addr", out); err != nil {
		return common.Address{}, &ENSError{Name: name, Reason: "malformed addr response", Err: err}
	}
	if addr == (common.Address{}) {
		return common.Address{}, &ENSError{Name: name, Reason: "name not found"}
	}
	return addr, nil
}

// LookupAddress reverse-resolves an address to its primary ENS name. The
// returned name must resolve back to the same address, otherwise the reverse
// record is considered not owned.
func (p *Provider) LookupAddress(ctx context.Context, addr common.Address) (string, error) {
	reverse := ReverseName(addr)

	// Reverse resolvers commonly revert on supportsInterface, so the
	// validation step is skipped for the reverse lookup.
	resolver, err := p.resolverFor(ctx, reverse, false)
	if err != nil {
		return "", err
	}

	out, err := p.ensCall(ctx, resolver, ensResolverABI, "name", Namehash(reverse))
	if err != nil {
		return "", &ENSError{Name: reverse, Reason: "name lookup failed", Err: err}
	}
	var name string
	if err := ensResolverABI.UnpackIntoInterface(&name, "name", out); err != nil {
		return "", &ENSError{Name: reverse, Reason: "malformed name response", Err: err}
	}
	if name == "" {
		return "", &ENSError{Name: reverse, Reason: "no reverse record"}
	}

	forward, err := p.ResolveName(ctx, name)
	if err != nil {
		return "", err
	}
	if forward != addr {
		return "", &ENSError{Name: name, Reason: "reverse record not pointing to itself"}
	}
	return name, nil
}

// resolverFor asks the registry for the resolver responsible for name and,
// when validate is set, checks it supports the addr interface.
func (p *Provider) resolverFor(ctx context.Context, name string, validate bool) (common.Address, error) {
	if p.ensRegistry == nil {
		return common.Address{}, &ENSError{Name: name, Reason: "not configured", Err: ErrENSNotConfigured}
	}

	out, err := p.ensCall(ctx, *p.ensRegistry, ensRegistryABI, "resolver", Namehash(name))
	if err != nil {
		return common.Address{}, &ENSError{Name: name, Reason: "registry lookup failed", Err: err}
	}
	var resolver common.Address
	if err := ensRegistryABI.UnpackIntoInterface(&resolver, "resolver", out); err != nil {
		return common.Address{}, &ENSError{Name: name, Reason: "malformed registry response", Err: err}
	}
	if resolver == (common.Address{}) {
		return common.Address{}, &ENSError{Name: name, Reason: "no resolver set"}
	}

	if validate {
		out, err := p.ensCall(ctx, resolver, ensResolverABI, "supportsInterface", addrInterfaceID)
		if err != nil {
			return common.Address{}, &ENSError{Name: name, Reason: "resolver validation failed", Err: err}
		}
		var supported bool
		if err := ensResolverABI.UnpackIntoInterface(&supported, "supportsInterface", out); err != nil || !supported {
			return common.Address{}, &ENSError{Name: name, Reason: "resolver does not support addr lookups", Err: err}
		}
	}
	return resolver, nil
}

func (p *Provider) ensCall(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...any) ([]byte, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	req := &types.Request{To: types.Addr(contract), Data: data}
	return p.CallContract(ctx, req, nil)
}
