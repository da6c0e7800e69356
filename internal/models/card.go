package models

import (
	"strings"
	"time"
)

// CardIssuer is a recognized payment network.
type CardIssuer string

const (
	IssuerVisa       CardIssuer = "visa"
	IssuerMastercard CardIssuer = "mastercard"
)

// CreditCard is a payment instrument on file with an account. Cards are
// stored as entered; validity is evaluated at the point of use, so a card
// that expires between two operations simply stops working without being
// mutated or removed.
type CreditCard struct {
	Issuer      string `json:"issuer"`
	CardNumber  int64  `json:"card_number"`
	ExpiryYear  int    `json:"expiry_year"`
	ExpiryMonth int    `json:"expiry_month"`
}

// NewCreditCard builds a card descriptor, normalizing the issuer name.
// Construction never fails; an unrecognized or expired card is still a
// card, it just won't pass IsValid.
func NewCreditCard(issuer string, number int64, expiryYear, expiryMonth int) CreditCard {
	return CreditCard{
		Issuer:      strings.ToLower(strings.TrimSpace(issuer)),
		CardNumber:  number,
		ExpiryYear:  expiryYear,
		ExpiryMonth: expiryMonth,
	}
}

// IsValid reports whether the card can be used right now.
func (c CreditCard) IsValid() bool {
	return c.ValidAt(time.Now())
}

// ValidAt reports whether the card is usable at the given instant: the
// issuer must be a recognized network and the expiry year/month must not
// be strictly in the past.
func (c CreditCard) ValidAt(now time.Time) bool {
	switch CardIssuer(strings.ToLower(c.Issuer)) {
	case IssuerVisa, IssuerMastercard:
	default:
		return false
	}
	if c.ExpiryYear < now.Year() {
		return false
	}
	if c.ExpiryYear == now.Year() && c.ExpiryMonth < int(now.Month()) {
		return false
	}
	return true
}
