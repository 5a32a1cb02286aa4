package provider

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	// feeHistoryBlocks is how many recent blocks the priority-fee heuristic
	// samples.
	feeHistoryBlocks = 10
	// feeHistoryPercentile is the reward percentile sampled per block.
	feeHistoryPercentile = 5
)

// defaultPriorityFee is the tip used when the sampled fee history carries no
// usable rewards (3 gwei).
var defaultPriorityFee = big.NewInt(3_000_000_000)

type feeHistoryResult struct {
	OldestBlock  *hexutil.Big     `json:"oldestBlock"`
	Reward       [][]*hexutil.Big `json:"reward,omitempty"`
	BaseFee      []*hexutil.Big   `json:"baseFeePerGas,omitempty"`
	GasUsedRatio []float64        `json:"gasUsedRatio"`
}

// EstimateEIP1559Fees returns a max fee per gas and a max priority fee per
// gas for a fee-market transaction. The tip is the median of the sampled
// per-block rewards (falling back to defaultPriorityFee); the fee cap leaves
// room for the base fee to double: 2*baseFee + tip.
func (p *Provider) EstimateEIP1559Fees(ctx context.Context) (*big.Int, *big.Int, error) {
	head, err := p.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	if head.BaseFee == nil {
		return nil, nil, opErr("eth_feeHistory", ErrEIP1559NotActivated)
	}

	var history feeHistoryResult
	if err := p.transport.Request(ctx, &history, "eth_feeHistory",
		hexutil.Uint64(feeHistoryBlocks), "latest", []float64{feeHistoryPercentile}); err != nil {
		return nil, nil, opErr("eth_feeHistory", err)
	}

	gasTipCap := suggestPriorityFee(history.Reward)
	gasFeeCap := new(big.Int).Add(
		new(big.Int).Mul(head.BaseFee, big.NewInt(2)),
		gasTipCap,
	)
	return gasFeeCap, gasTipCap, nil
}

// suggestPriorityFee takes the median of the non-zero sampled rewards.
func suggestPriorityFee(reward [][]*hexutil.Big) *big.Int {
	var rewards []*big.Int
	for _, blockRewards := range reward {
		for _, r := range blockRewards {
			if r == nil {
				continue
			}
			v := (*big.Int)(r)
			if v.Sign() > 0 {
				rewards = append(rewards, v)
			}
		}
	}
	if len(rewards) == 0 {
		return new(big.Int).Set(defaultPriorityFee)
	}
	sort.Slice(rewards, func(i, j int) bool { return rewards[i].Cmp(rewards[j]) < 0 })
	return new(big.Int).Set(rewards[len(rewards)/2])
}
