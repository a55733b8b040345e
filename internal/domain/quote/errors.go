package domain_quote

import "errors"

var (
	ErrInvalidQuoteID       = errors.New("quote: invalid quote_id")
	ErrInvalidUserID        = errors.New("quote: invalid user_id")
	ErrInvalidBeneficiaryID = errors.New("quote: invalid beneficiary_id")
	ErrInvalidAmount        = errors.New("quote: invalid amount")
	ErrInvalidPricing       = errors.New("quote: invalid pricing configuration")
	ErrQuoteExpired         = errors.New("quote: quote has expired")
	ErrQuoteNotFound        = errors.New("quote: quote not found")
)
