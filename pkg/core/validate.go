package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Prices and quantities carry at most 8 fractional digits.
const (
	MaxPricePrecision    = 8
	MaxQuantityPrecision = 8
)

func ValidateSymbol(symbol string) error {
	if strings.TrimSpace(symbol) == "" {
		return fmt.Errorf("%w: symbol must not be empty", ErrInvalidOrder)
	}
	return nil
}

func ValidatePrice(price decimal.Decimal) error {
	if price.Sign() <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidOrder)
	}
	if !price.Equal(price.Truncate(MaxPricePrecision)) {
		return fmt.Errorf("%w: price exceeds %d fractional digits", ErrInvalidOrder, MaxPricePrecision)
	}
	return nil
}

func ValidateQuantity(qty decimal.Decimal) error {
	if qty.Sign() <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	if !qty.Equal(qty.Truncate(MaxQuantityPrecision)) {
		return fmt.Errorf("%w: quantity exceeds %d fractional digits", ErrInvalidOrder, MaxQuantityPrecision)
	}
	return nil
}

// ValidateModify checks the optional modify parameters: at least one must be
// present, and each present one must pass its own validation.
func ValidateModify(newPrice, newQty *decimal.Decimal) error {
	if newPrice == nil && newQty == nil {
		return fmt.Errorf("%w: at least one of price or quantity must be provided", ErrInvalidOrder)
	}
	if newPrice != nil {
		if err := ValidatePrice(*newPrice); err != nil {
			return err
		}
	}
	if newQty != nil {
		if err := ValidateQuantity(*newQty); err != nil {
			return err
		}
	}
	return nil
}
