package model

import (
	"press-subscription/internal/domain"

	"github.com/shopspring/decimal"
)

// PricingTier names which rate produced a subscription price.
type PricingTier string

const (
	PricingTierMonthly PricingTier = "monthly"
	PricingTierYearly  PricingTier = "yearly"
)

// TierFor returns the rate applied to a duration: the yearly rate only for
// whole years (12, 24, 36 months), the monthly rate for everything else.
func TierFor(months int) PricingTier {
	if months >= 12 && months%12 == 0 {
		return PricingTierYearly
	}
	return PricingTierMonthly
}

// Price computes the amount charged for a subscription of the given length.
// Partial years are billed month by month, never prorated from the yearly rate.
func Price(monthly, yearly decimal.Decimal, months int) (decimal.Decimal, error) {
	if !ValidDuration(months) || !monthly.IsPositive() || !yearly.IsPositive() {
		return decimal.Zero, domain.ErrInvalidArgument
	}
	if TierFor(months) == PricingTierYearly {
		return yearly.Mul(decimal.NewFromInt(int64(months / 12))), nil
	}
	return monthly.Mul(decimal.NewFromInt(int64(months))), nil
}
