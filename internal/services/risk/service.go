package risk

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// highRiskCountries is the fixed list of ISO country codes that trigger the
// high-risk destination factor and the international fee surcharge.
var highRiskCountries = map[string]bool{
	"AF": true,
	"IR": true,
	"KP": true,
	"MM": true,
	"SS": true,
	"SY": true,
	"YE": true,
}

// IsHighRiskCountry reports whether a country code is on the high-risk list.
func IsHighRiskCountry(code string) bool {
	return highRiskCountries[code]
}

// largeAmountFloor is the minimum threshold for the large-amount factor
// regardless of the actor's average.
var largeAmountFloor = decimal.NewFromInt(10000)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Score computes a fraud risk score in [0,100] from independent weighted
// factors. It never fails: callers treat scoring errors upstream (history
// assembly) as a pass so legitimate transactions are not blocked by an
// internal fault.
func (s *Service) Score(in Input) Assessment {
	var factors []Factor

	add := func(name string, weight int, format string, args ...interface{}) {
		factors = append(factors, Factor{
			Name:        name,
			Weight:      weight,
			Description: fmt.Sprintf(format, args...),
		})
	}

	if in.OriginCountry != "" && in.ActorCountry != "" && in.OriginCountry != in.ActorCountry {
		add("unusual_location", WeightUnusualLocation,
			"request origin %s differs from known location %s", in.OriginCountry, in.ActorCountry)
	}

	threshold := largeAmountFloor
	if in.History != nil && in.History.AverageAmount3M.IsPositive() {
		scaled := in.History.AverageAmount3M.Mul(decimal.NewFromInt(5))
		if scaled.GreaterThan(threshold) {
			threshold = scaled
		}
	}
	if in.Amount.GreaterThanOrEqual(threshold) {
		add("large_amount", WeightLargeAmount,
			"amount %s at or above threshold %s", in.Amount, threshold)
	}

	if in.HasSourcePair && in.History != nil && !in.History.PriorTransferExists {
		add("new_payee", WeightNewPayee,
			"no completed transfer to this destination in the last 6 months")
	}

	hour := in.Now.Hour()
	weekend := in.Now.Weekday() == time.Saturday || in.Now.Weekday() == time.Sunday
	if hour >= 22 || hour < 6 || weekend {
		add("after_hours", WeightAfterHours,
			"submitted at %s", in.Now.Format("Mon 15:04"))
	}

	if in.History != nil && in.History.CompletedLast15Min > 3 {
		add("rapid_succession", WeightRapidSuccession,
			"%d transactions completed in the preceding 15 minutes", in.History.CompletedLast15Min)
	}

	if IsHighRiskCountry(in.DestinationCountry) {
		add("high_risk_destination", WeightHighRiskDestination,
			"destination country %s is on the high-risk list", in.DestinationCountry)
	}

	if in.SourceOpenedAt != nil && in.Now.Sub(*in.SourceOpenedAt) < 30*24*time.Hour {
		add("young_account", WeightYoungAccount,
			"source account opened %s", in.SourceOpenedAt.Format("2006-01-02"))
	}

	if in.History != nil && in.History.HistoryDepth > 0 && len(in.History.TopTypes3M) > 0 {
		usual := false
		for _, t := range in.History.TopTypes3M {
			if t == in.TransactionType {
				usual = true
				break
			}
		}
		if !usual {
			add("unusual_pattern", WeightUnusualPattern,
				"type %s is not among the actor's 3 most common types", in.TransactionType)
		}
	}

	total := 0
	for _, f := range factors {
		total += f.Weight
	}
	if total > 100 {
		total = 100
	}

	return Assessment{Score: total, Factors: factors}
}
