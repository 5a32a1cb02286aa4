package escalator

import (
	"math/big"
	"time"
)

// Strategy computes a replacement gas price from the price a transaction was
// first broadcast with and the time elapsed since. Implementations are pure
// and safe to invoke concurrently.
type Strategy interface {
	Price(initial *big.Int, elapsed time.Duration) *big.Int
}

// Linear grows the price by a fixed increment once per interval.
type Linear struct {
	// Increase is added to the price for every full Interval elapsed.
	Increase *big.Int
	// Interval is the escalation period.
	Interval time.Duration
}

// NewLinear returns a linear strategy bumping the price by increase per
// interval.
func NewLinear(increase *big.Int, interval time.Duration) Linear {
	return Linear{Increase: increase, Interval: interval}
}

func (l Linear) Price(initial *big.Int, elapsed time.Duration) *big.Int {
	// A non-positive interval never escalates.
	if l.Interval <= 0 {
		return new(big.Int).Set(initial)
	}
	steps := int64(elapsed / l.Interval)
	bump := new(big.Int).Mul(l.Increase, big.NewInt(steps))
	return bump.Add(bump, initial)
}

// Geometric multiplies the price by a coefficient once per interval,
// compounding, optionally capped by a ceiling.
type Geometric struct {
	// Coefficient is the per-interval multiplier, e.g. 1.125.
	Coefficient float64
	// Interval is the escalation period.
	Interval time.Duration
	// MaxPrice caps the escalated price when non-nil.
	MaxPrice *big.Int
}

// NewGeometric returns a geometric strategy multiplying the price by
// coefficient per interval, capped at maxPrice when non-nil.
func NewGeometric(coefficient float64, interval time.Duration, maxPrice *big.Int) Geometric {
	return Geometric{Coefficient: coefficient, Interval: interval, MaxPrice: maxPrice}
}

func (g Geometric) Price(initial *big.Int, elapsed time.Duration) *big.Int {
	// A non-positive interval never escalates.
	if g.Interval <= 0 {
		return new(big.Int).Set(initial)
	}
	steps := int64(elapsed / g.Interval)

	factor := big.NewFloat(1)
	coefficient := big.NewFloat(g.Coefficient)
	for i := int64(0); i < steps; i++ {
		factor.Mul(factor, coefficient)
	}

	scaled := new(big.Float).Mul(new(big.Float).SetInt(initial), factor)
	price, _ := scaled.Int(nil)

	if g.MaxPrice != nil && price.Cmp(g.MaxPrice) > 0 {
		return new(big.Int).Set(g.MaxPrice)
	}
	return price
}
