package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerd/internal/models"
)

func usdAccount(features ...string) *models.Account {
	return &models.Account{Currency: "USD", Features: features}
}

func eurAccount() *models.Account {
	return &models.Account{Currency: "EUR"}
}

func TestSelectStrategyByPriority(t *testing.T) {
	selector := NewSelector()

	tests := []struct {
		name  string
		input Input
		want  string
	}{
		{
			name: "same customer wins over premium",
			input: Input{
				Amount:  decimal.NewFromInt(100),
				Source:  usdAccount("premium"),
				Context: Context{SameCustomer: true},
			},
			want: "no_fee",
		},
		{
			name: "promotional is free",
			input: Input{
				Amount:  decimal.NewFromInt(100),
				Source:  usdAccount(),
				Context: Context{Promotional: true},
			},
			want: "no_fee",
		},
		{
			name: "premium beats domestic",
			input: Input{
				Amount:      decimal.NewFromInt(100),
				Source:      usdAccount("premium"),
				Destination: usdAccount(),
			},
			want: "premium_account",
		},
		{
			name: "same currency is domestic",
			input: Input{
				Amount:      decimal.NewFromInt(100),
				Source:      usdAccount(),
				Destination: usdAccount(),
			},
			want: "domestic_transfer",
		},
		{
			name: "withdrawal without destination is domestic",
			input: Input{
				Amount: decimal.NewFromInt(100),
				Source: usdAccount(),
			},
			want: "domestic_transfer",
		},
		{
			name: "cross currency is international",
			input: Input{
				Amount:      decimal.NewFromInt(100),
				Source:      usdAccount(),
				Destination: eurAccount(),
			},
			want: "international_transfer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := selector.Select(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strategy.Name)
		})
	}
}

func TestDomesticFeeTiers(t *testing.T) {
	selector := NewSelector()

	tests := []struct {
		amount int64
		want   string
	}{
		{200, "1"},       // 0.50% of 200
		{1000, "5"},      // low tier boundary
		{5000, "17.5"},   // 0.35% band
		{20000, "50"},    // 0.25% = 50, clamped at max 50
	}

	for _, tt := range tests {
		fee, strategy, err := selector.CalculateFee(Input{
			Amount:      decimal.NewFromInt(tt.amount),
			Source:      usdAccount(),
			Destination: usdAccount(),
		})
		require.NoError(t, err)
		assert.Equal(t, "domestic_transfer", strategy)
		assert.True(t, fee.Equal(decimal.RequireFromString(tt.want)),
			"amount %d: got fee %s want %s", tt.amount, fee, tt.want)
	}
}

func TestDomesticFeeMinimum(t *testing.T) {
	selector := NewSelector()

	// 0.50% of 10 is 0.05, below the 0.50 strategy minimum.
	fee, _, err := selector.CalculateFee(Input{
		Amount:      decimal.NewFromInt(10),
		Source:      usdAccount(),
		Destination: usdAccount(),
	})
	require.NoError(t, err)
	assert.True(t, fee.Equal(decimal.NewFromFloat(0.50)), "got %s", fee)
}

func TestGlobalFeeCap(t *testing.T) {
	selector := NewSelector()

	// Minimum international fee of 5 would exceed 10% of a 20 transfer.
	fee, _, err := selector.CalculateFee(Input{
		Amount:      decimal.NewFromInt(20),
		Source:      usdAccount(),
		Destination: eurAccount(),
	})
	require.NoError(t, err)
	assert.True(t, fee.Equal(decimal.NewFromInt(2)), "got %s", fee)
}

func TestInternationalSurcharges(t *testing.T) {
	selector := NewSelector()

	base := Input{
		Amount:      decimal.NewFromInt(10000),
		Source:      usdAccount(),
		Destination: eurAccount(),
	}

	fee, _, err := selector.CalculateFee(base)
	require.NoError(t, err)
	assert.True(t, fee.Equal(decimal.NewFromInt(100)), "got %s", fee) // 1.00%

	base.Context.WireTransfer = true
	fee, _, err = selector.CalculateFee(base)
	require.NoError(t, err)
	assert.True(t, fee.Equal(decimal.NewFromInt(125)), "got %s", fee)

	base.Context.HighRiskDestination = true
	fee, _, err = selector.CalculateFee(base)
	require.NoError(t, err)
	assert.True(t, fee.Equal(decimal.NewFromInt(175)), "got %s", fee)
}

func TestDiscountsStack(t *testing.T) {
	selector := NewSelector()

	// 0.35% of 5000 = 17.50, then 0.90 loyalty and 0.95 volume.
	fee, _, err := selector.CalculateFee(Input{
		Amount:      decimal.NewFromInt(5000),
		Source:      usdAccount(),
		Destination: usdAccount(),
		Context: Context{
			LoyaltyYears:  6,
			MonthlyVolume: decimal.NewFromInt(50000),
		},
	})
	require.NoError(t, err)
	assert.True(t, fee.Equal(decimal.RequireFromString("14.9625")), "got %s", fee)
}

func TestPremiumFeeClamp(t *testing.T) {
	selector := NewSelector()

	// 0.10% of 100000 = 100, clamped to the premium max of 25.
	fee, strategy, err := selector.CalculateFee(Input{
		Amount:      decimal.NewFromInt(100000),
		Source:      usdAccount("premium"),
		Destination: usdAccount(),
	})
	require.NoError(t, err)
	assert.Equal(t, "premium_account", strategy)
	assert.True(t, fee.Equal(decimal.NewFromInt(25)), "got %s", fee)
}

func TestCalculateFeeDeterministic(t *testing.T) {
	selector := NewSelector()

	input := Input{
		Amount:      decimal.NewFromInt(777),
		Source:      usdAccount(),
		Destination: eurAccount(),
		Context:     Context{LoyaltyYears: 3},
	}

	first, firstStrategy, err := selector.CalculateFee(input)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		fee, strategy, err := selector.CalculateFee(input)
		require.NoError(t, err)
		assert.True(t, fee.Equal(first))
		assert.Equal(t, firstStrategy, strategy)
	}
}
