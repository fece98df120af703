// Package fees selects and computes transaction fees from a prioritized,
// predicate-gated strategy registry. Selection and computation are pure
// functions of their inputs so results are reproducible for auditing.
package fees

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoApplicableStrategy means the registry is misconfigured: the
	// built-in strategies are meant to cover every admitted transaction.
	ErrNoApplicableStrategy = errors.New("no applicable fee strategy")
)

// maxFeeRatio caps any computed fee at 10% of the amount.
var maxFeeRatio = decimal.NewFromFloat(0.10)

type Selector struct {
	strategies []Strategy
}

// NewSelector builds the static registry. Strategies are ordered by
// priority once, at construction.
func NewSelector() *Selector {
	strategies := builtinStrategies()
	sort.SliceStable(strategies, func(i, j int) bool {
		return strategies[i].Priority < strategies[j].Priority
	})
	return &Selector{strategies: strategies}
}

// Select returns the lowest-priority applicable strategy.
func (s *Selector) Select(in Input) (*Strategy, error) {
	for i := range s.strategies {
		if s.strategies[i].Applies(in) {
			return &s.strategies[i], nil
		}
	}
	return nil, ErrNoApplicableStrategy
}

// CalculateFee selects a strategy and computes the fee, enforcing the
// global fee-to-amount cap. Returns the fee and the strategy name.
func (s *Selector) CalculateFee(in Input) (decimal.Decimal, string, error) {
	strategy, err := s.Select(in)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("fee selection failed: %w", err)
	}

	fee := strategy.Compute(in)
	if cap := in.Amount.Mul(maxFeeRatio); fee.GreaterThan(cap) {
		fee = cap
	}
	return fee.Round(4), strategy.Name, nil
}
