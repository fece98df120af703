package fees

import "github.com/shopspring/decimal"

var (
	pct = func(n int64) decimal.Decimal { return decimal.New(n, -4) } // basis points

	ratePremium       = pct(10) // 0.10%
	rateDomesticLow   = pct(50) // 0.50% up to 1,000
	rateDomesticMid   = pct(35) // 0.35% up to 10,000
	rateDomesticHigh  = pct(25) // 0.25% above
	rateIntlLow       = pct(100) // 1.00% up to 10,000
	rateIntlMid       = pct(75)  // 0.75% up to 100,000
	rateIntlHigh      = pct(50)  // 0.50% above

	tierDomesticLow = decimal.NewFromInt(1000)
	tierDomesticMid = decimal.NewFromInt(10000)
	tierIntlLow     = decimal.NewFromInt(10000)
	tierIntlMid     = decimal.NewFromInt(100000)

	wireSurcharge     = decimal.NewFromInt(25)
	highRiskSurcharge = decimal.NewFromInt(50)

	premiumFeeMax  = decimal.NewFromInt(25)
	domesticFeeMin = decimal.NewFromFloat(0.50)
	domesticFeeMax = decimal.NewFromInt(50)
	intlFeeMin     = decimal.NewFromInt(5)
	intlFeeMax     = decimal.NewFromInt(500)

	volumeTierHigh = decimal.NewFromInt(100000)
	volumeTierMid  = decimal.NewFromInt(10000)
)

func builtinStrategies() []Strategy {
	return []Strategy{
		{
			Name:     "no_fee",
			Priority: PriorityNoFee,
			Applies: func(in Input) bool {
				return in.Context.SameCustomer ||
					in.Context.EmployeeAccounts ||
					in.Context.Promotional ||
					in.Context.SystemGenerated
			},
			Compute: func(Input) decimal.Decimal { return decimal.Zero },
		},
		{
			Name:     "premium_account",
			Priority: PriorityPremium,
			Applies: func(in Input) bool {
				return in.Source != nil && in.Source.HasFeature("premium")
			},
			Compute: func(in Input) decimal.Decimal {
				fee := in.Amount.Mul(ratePremium)
				fee = applyDiscounts(fee, in.Context)
				return clamp(fee, decimal.Zero, premiumFeeMax)
			},
		},
		{
			Name:     "domestic_transfer",
			Priority: PriorityDomestic,
			Applies: func(in Input) bool {
				return in.Source == nil || in.Destination == nil ||
					in.Source.Currency == in.Destination.Currency
			},
			Compute: func(in Input) decimal.Decimal {
				var rate decimal.Decimal
				switch {
				case in.Amount.LessThanOrEqual(tierDomesticLow):
					rate = rateDomesticLow
				case in.Amount.LessThanOrEqual(tierDomesticMid):
					rate = rateDomesticMid
				default:
					rate = rateDomesticHigh
				}
				fee := applyDiscounts(in.Amount.Mul(rate), in.Context)
				return clamp(fee, domesticFeeMin, domesticFeeMax)
			},
		},
		{
			Name:     "international_transfer",
			Priority: PriorityInternational,
			Applies: func(in Input) bool {
				return in.Source != nil && in.Destination != nil &&
					in.Source.Currency != in.Destination.Currency
			},
			Compute: func(in Input) decimal.Decimal {
				var rate decimal.Decimal
				switch {
				case in.Amount.LessThanOrEqual(tierIntlLow):
					rate = rateIntlLow
				case in.Amount.LessThanOrEqual(tierIntlMid):
					rate = rateIntlMid
				default:
					rate = rateIntlHigh
				}
				fee := in.Amount.Mul(rate)
				if in.Context.WireTransfer {
					fee = fee.Add(wireSurcharge)
				}
				if in.Context.HighRiskDestination {
					fee = fee.Add(highRiskSurcharge)
				}
				fee = applyDiscounts(fee, in.Context)
				return clamp(fee, intlFeeMin, intlFeeMax)
			},
		},
	}
}

// applyDiscounts multiplies in loyalty and volume discounts. Same-customer
// traffic already lands on the no-fee strategy so it needs no multiplier.
func applyDiscounts(fee decimal.Decimal, ctx Context) decimal.Decimal {
	multiplier := decimal.NewFromInt(1)
	switch {
	case ctx.LoyaltyYears >= 5:
		multiplier = multiplier.Mul(decimal.NewFromFloat(0.90))
	case ctx.LoyaltyYears >= 2:
		multiplier = multiplier.Mul(decimal.NewFromFloat(0.95))
	}
	switch {
	case ctx.MonthlyVolume.GreaterThan(volumeTierHigh):
		multiplier = multiplier.Mul(decimal.NewFromFloat(0.90))
	case ctx.MonthlyVolume.GreaterThan(volumeTierMid):
		multiplier = multiplier.Mul(decimal.NewFromFloat(0.95))
	}
	return fee.Mul(multiplier)
}

func clamp(fee, min, max decimal.Decimal) decimal.Decimal {
	if fee.LessThan(min) {
		return min
	}
	if fee.GreaterThan(max) {
		return max
	}
	return fee
}
