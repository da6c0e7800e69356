package models

import "github.com/shopspring/decimal"

// BoostType identifies a cashback rule variant. Boosts are stateless
// beyond their tag, so an account's boost set naturally de-duplicates
// by variant.
type BoostType string

const (
	BoostHighRoller BoostType = "high_roller"
	BoostShopaholic BoostType = "shopaholic"
	BoostFoodie     BoostType = "foodie"
)

// MaxBoostsPerAccount caps how many boosts an account may hold.
const MaxBoostsPerAccount = 2

// highRollerMin is the purchase total at which the HighRoller boost
// starts paying out. A purchase of exactly this amount is eligible.
var highRollerMin = decimal.NewFromInt(1000)

type boostRule struct {
	rate     decimal.Decimal
	eligible func(amount decimal.Decimal, category BusinessType) bool
}

var boostRules = map[BoostType]boostRule{
	BoostHighRoller: {
		rate: decimal.NewFromFloat(0.10),
		eligible: func(amount decimal.Decimal, _ BusinessType) bool {
			return amount.GreaterThanOrEqual(highRollerMin)
		},
	},
	BoostShopaholic: {
		rate: decimal.NewFromFloat(0.05),
		eligible: func(_ decimal.Decimal, category BusinessType) bool {
			return category == BusinessRetailer
		},
	},
	BoostFoodie: {
		rate: decimal.NewFromFloat(0.03),
		eligible: func(_ decimal.Decimal, category BusinessType) bool {
			return category == BusinessCafe || category == BusinessRestaurant
		},
	},
}

// Valid reports whether b names a known boost variant.
func (b BoostType) Valid() bool {
	_, ok := boostRules[b]
	return ok
}

// Eligible reports whether the boost applies to a purchase of the given
// amount against a merchant of the given category.
func (b BoostType) Eligible(amount decimal.Decimal, category BusinessType) bool {
	rule, ok := boostRules[b]
	return ok && rule.eligible(amount, category)
}

// Cashback returns the cashback earned by this boost for the purchase,
// or zero when the boost is not eligible. Boosts held together are
// evaluated independently; their cashback amounts sum.
func (b BoostType) Cashback(amount decimal.Decimal, category BusinessType) decimal.Decimal {
	if !b.Eligible(amount, category) {
		return decimal.Zero
	}
	return amount.Mul(boostRules[b].rate)
}
