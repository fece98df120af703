// Package validation runs the ordered decision chain every transaction
// passes before commit. Each stage returns pass, defer or reject; the
// chain stops at the first defer or reject, and a reject happens before
// any persistent side effect.
package validation

import (
	"context"
	"sort"

	"ledgerd/internal/models"
	"ledgerd/internal/services/risk"
)

type Chain struct {
	stages []Stage
}

// NewChain builds the standard five-stage chain. The stage list is static;
// order comes from each stage's declared Order.
func NewChain(scorer *risk.Service, history HistorySource, outflow DailyOutflowSource, cache DailyOutflowCache) *Chain {
	if scorer == nil {
		panic("scorer is required")
	}
	if history == nil {
		panic("history source is required")
	}
	if outflow == nil {
		panic("outflow source is required")
	}
	if cache == nil {
		panic("outflow cache is required")
	}

	stages := []Stage{
		amountStage{},
		stateStage{},
		dailyLimitStage{source: outflow, cache: cache},
		fraudStage{scorer: scorer, history: history},
		thresholdStage{},
	}
	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].Order() < stages[j].Order()
	})
	return &Chain{stages: stages}
}

// Run evaluates the request through every stage in order. The returned
// error covers internal faults only; classified rejections come back in
// the Outcome.
func (c *Chain) Run(ctx context.Context, req *Request) (Outcome, error) {
	outcome := Outcome{Decision: DecisionAdmitted}

	for _, stage := range c.stages {
		result, err := stage.Evaluate(ctx, req)
		if err != nil {
			return Outcome{}, err
		}

		if result.Err != nil {
			outcome.Decision = DecisionRejected
			outcome.Stage = stage.Name()
			outcome.Err = result.Err
			c.captureRiskScore(&outcome, req)
			return outcome, nil
		}
		if result.Defer {
			outcome.Decision = DecisionDeferred
			outcome.Stage = stage.Name()
			outcome.Level = result.Level
			c.captureRiskScore(&outcome, req)
			return outcome, nil
		}
	}

	c.captureRiskScore(&outcome, req)
	return outcome, nil
}

func (c *Chain) captureRiskScore(outcome *Outcome, req *Request) {
	if req.Transaction.Metadata == nil {
		return
	}
	if score, ok := req.Transaction.Metadata[models.MetaRiskScore].(int); ok {
		outcome.RiskScore = &score
	}
}
