package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerd/internal/repositories"
)

// quietTime is a Wednesday mid-morning, triggering no time-based factor.
var quietTime = time.Date(2025, 3, 12, 10, 30, 0, 0, time.UTC)

func quietInput() Input {
	return Input{
		TransactionType: "transfer",
		Amount:          decimal.NewFromInt(100),
		OriginCountry:   "US",
		ActorCountry:    "US",
		Now:             quietTime,
		History: &repositories.ActorHistory{
			AverageAmount3M:     decimal.NewFromInt(100),
			PriorTransferExists: true,
			TopTypes3M:          []string{"transfer", "deposit"},
			HistoryDepth:        40,
		},
	}
}

func TestScoreNoFactors(t *testing.T) {
	svc := NewService()

	assessment := svc.Score(quietInput())

	assert.Equal(t, 0, assessment.Score)
	assert.Empty(t, assessment.Factors)
}

func TestScoreSingleFactors(t *testing.T) {
	svc := NewService()

	tests := []struct {
		name   string
		mutate func(*Input)
		factor string
		weight int
	}{
		{
			name:   "unusual location",
			mutate: func(in *Input) { in.OriginCountry = "FR" },
			factor: "unusual_location",
			weight: WeightUnusualLocation,
		},
		{
			name:   "large amount against floor",
			mutate: func(in *Input) { in.Amount = decimal.NewFromInt(10000) },
			factor: "large_amount",
			weight: WeightLargeAmount,
		},
		{
			name: "new payee",
			mutate: func(in *Input) {
				in.HasSourcePair = true
				in.History.PriorTransferExists = false
			},
			factor: "new_payee",
			weight: WeightNewPayee,
		},
		{
			name:   "after hours late night",
			mutate: func(in *Input) { in.Now = time.Date(2025, 3, 12, 23, 0, 0, 0, time.UTC) },
			factor: "after_hours",
			weight: WeightAfterHours,
		},
		{
			name:   "weekend counts as after hours",
			mutate: func(in *Input) { in.Now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) },
			factor: "after_hours",
			weight: WeightAfterHours,
		},
		{
			name:   "rapid succession",
			mutate: func(in *Input) { in.History.CompletedLast15Min = 4 },
			factor: "rapid_succession",
			weight: WeightRapidSuccession,
		},
		{
			name:   "high risk destination",
			mutate: func(in *Input) { in.DestinationCountry = "KP" },
			factor: "high_risk_destination",
			weight: WeightHighRiskDestination,
		},
		{
			name: "young source account",
			mutate: func(in *Input) {
				opened := quietTime.Add(-10 * 24 * time.Hour)
				in.SourceOpenedAt = &opened
			},
			factor: "young_account",
			weight: WeightYoungAccount,
		},
		{
			name:   "unusual pattern",
			mutate: func(in *Input) { in.TransactionType = "international_transfer" },
			factor: "unusual_pattern",
			weight: WeightUnusualPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := quietInput()
			tt.mutate(&in)

			assessment := svc.Score(in)

			require.Len(t, assessment.Factors, 1)
			assert.Equal(t, tt.factor, assessment.Factors[0].Name)
			assert.Equal(t, tt.weight, assessment.Score)
		})
	}
}

func TestScoreLargeAmountScalesWithHistory(t *testing.T) {
	svc := NewService()

	// Average of 5000 pushes the threshold to 25000, above the floor.
	in := quietInput()
	in.History.AverageAmount3M = decimal.NewFromInt(5000)
	in.Amount = decimal.NewFromInt(20000)
	assert.Equal(t, 0, svc.Score(in).Score)

	in.Amount = decimal.NewFromInt(25000)
	assessment := svc.Score(in)
	require.Len(t, assessment.Factors, 1)
	assert.Equal(t, "large_amount", assessment.Factors[0].Name)
}

func TestScoreClampsAtHundred(t *testing.T) {
	svc := NewService()

	opened := quietTime.Add(-24 * time.Hour)
	in := Input{
		TransactionType:    "international_transfer",
		Amount:             decimal.NewFromInt(50000),
		OriginCountry:      "RU",
		ActorCountry:       "US",
		DestinationCountry: "IR",
		SourceOpenedAt:     &opened,
		HasSourcePair:      true,
		Now:                time.Date(2025, 3, 15, 23, 30, 0, 0, time.UTC),
		History: &repositories.ActorHistory{
			AverageAmount3M:    decimal.NewFromInt(50),
			CompletedLast15Min: 10,
			TopTypes3M:         []string{"deposit"},
			HistoryDepth:       20,
		},
	}

	assessment := svc.Score(in)

	assert.Equal(t, 100, assessment.Score)
	assert.Len(t, assessment.Factors, 8)
}

func TestScoreNewActorSkipsPatternFactor(t *testing.T) {
	svc := NewService()

	// No history depth means no usual pattern to deviate from.
	in := quietInput()
	in.History.HistoryDepth = 0
	in.History.TopTypes3M = nil
	in.TransactionType = "international_transfer"

	assert.Equal(t, 0, svc.Score(in).Score)
}

func TestScoreNilHistoryFailsOpen(t *testing.T) {
	svc := NewService()

	in := quietInput()
	in.History = nil
	in.HasSourcePair = true

	// Only factors that need no history can fire; with a quiet input the
	// score stays zero.
	assert.Equal(t, 0, svc.Score(in).Score)
}

func TestIsHighRiskCountry(t *testing.T) {
	assert.True(t, IsHighRiskCountry("IR"))
	assert.True(t, IsHighRiskCountry("KP"))
	assert.False(t, IsHighRiskCountry("US"))
	assert.False(t, IsHighRiskCountry(""))
}
