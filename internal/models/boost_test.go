package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBoostValid(t *testing.T) {
	for _, b := range []BoostType{BoostHighRoller, BoostShopaholic, BoostFoodie} {
		if !b.Valid() {
			t.Errorf("%s should be a known variant", b)
		}
	}
	if BoostType("mega_saver").Valid() {
		t.Error("unknown variant should be invalid")
	}
}

func TestBoostCashback(t *testing.T) {
	cases := []struct {
		name     string
		boost    BoostType
		amount   string
		category BusinessType
		want     string
	}{
		{"high roller at threshold", BoostHighRoller, "1000", BusinessOther, "100"},
		{"high roller above threshold", BoostHighRoller, "1100.50", BusinessOther, "110.05"},
		{"high roller below threshold", BoostHighRoller, "999.99", BusinessOther, "0"},
		{"high roller ignores category", BoostHighRoller, "1000", BusinessRetailer, "100"},
		{"shopaholic at retailer", BoostShopaholic, "200", BusinessRetailer, "10"},
		{"shopaholic at cafe", BoostShopaholic, "200", BusinessCafe, "0"},
		{"foodie at cafe", BoostFoodie, "100", BusinessCafe, "3"},
		{"foodie at restaurant", BoostFoodie, "100", BusinessRestaurant, "3"},
		{"foodie at grocery", BoostFoodie, "100", BusinessGrocery, "0"},
		{"foodie at retailer", BoostFoodie, "100", BusinessRetailer, "0"},
	}
	for _, tc := range cases {
		amount, _ := decimal.NewFromString(tc.amount)
		want, _ := decimal.NewFromString(tc.want)
		if got := tc.boost.Cashback(amount, tc.category); !got.Equal(want) {
			t.Errorf("%s: cashback=%s want=%s", tc.name, got, want)
		}
	}
}

func TestUnknownBoostPaysNothing(t *testing.T) {
	amount := decimal.NewFromInt(5000)
	if got := BoostType("mega_saver").Cashback(amount, BusinessRetailer); !got.IsZero() {
		t.Fatalf("unknown variant cashback=%s want=0", got)
	}
}
