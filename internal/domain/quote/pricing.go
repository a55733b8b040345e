package domain_quote

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

// MaxAmount caps a single quote's source amount.
var MaxAmount = decimal.New(1, 15)

// Pricing holds the static demo rate card. Rates are not sourced live.
type Pricing struct {
	FXRate   decimal.Decimal
	FeeRate  decimal.Decimal
	MinFee   decimal.Decimal
	Validity time.Duration
}

func DefaultPricing() Pricing {
	return Pricing{
		FXRate:   decimal.RequireFromString("57.25"),
		FeeRate:  decimal.RequireFromString("0.012"),
		MinFee:   decimal.RequireFromString("1.5"),
		Validity: 5 * time.Minute,
	}
}

func (p Pricing) Validate() error {
	if !p.FXRate.IsPositive() {
		return fmt.Errorf("%w: fx rate must be > 0", ErrInvalidPricing)
	}
	if p.FeeRate.IsNegative() {
		return fmt.Errorf("%w: fee rate must be >= 0", ErrInvalidPricing)
	}
	if p.MinFee.IsNegative() {
		return fmt.Errorf("%w: min fee must be >= 0", ErrInvalidPricing)
	}
	if p.Validity <= 0 {
		return fmt.Errorf("%w: validity must be > 0", ErrInvalidPricing)
	}
	return nil
}

// ValidateAmount accepts positive amounts in whole cents up to MaxAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(moneyPlaces)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, moneyPlaces)
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: exceeds %s", ErrInvalidAmount, MaxAmount)
	}
	return nil
}

// Fee is max(MinFee, amount*FeeRate) rounded half away from zero to cents.
func (p Pricing) Fee(amount decimal.Decimal) decimal.Decimal {
	return decimal.Max(p.MinFee, amount.Mul(p.FeeRate)).Round(moneyPlaces)
}

func (p Pricing) ReceiveAmount(amount, fee decimal.Decimal) decimal.Decimal {
	return amount.Sub(fee).Mul(p.FXRate).Round(moneyPlaces)
}
