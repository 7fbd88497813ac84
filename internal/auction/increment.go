package auction

import "github.com/shopspring/decimal"

type incrementTier struct {
	below     decimal.Decimal
	increment decimal.Decimal
}

// tiers are ordered by upper bound; prices at or above the last bound use topIncrement
var (
	incrementTiers = []incrementTier{
		{below: decimal.NewFromInt(10_000), increment: decimal.NewFromInt(100)},
		{below: decimal.NewFromInt(50_000), increment: decimal.NewFromInt(500)},
		{below: decimal.NewFromInt(100_000), increment: decimal.NewFromInt(1_000)},
	}
	topIncrement = decimal.NewFromInt(2_000)
)

// MinimumIncrement returns the smallest amount a new bid must add to currentPrice.
// currentPrice must be non-negative; callers reject anything else before getting here.
func MinimumIncrement(currentPrice decimal.Decimal) decimal.Decimal {
	for _, tier := range incrementTiers {
		if currentPrice.LessThan(tier.below) {
			return tier.increment
		}
	}
	return topIncrement
}

// MinimumNextBid is the lowest amount the validator accepts against currentPrice
func MinimumNextBid(currentPrice decimal.Decimal) decimal.Decimal {
	return currentPrice.Add(MinimumIncrement(currentPrice))
}
