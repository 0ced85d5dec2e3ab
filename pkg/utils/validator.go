package utils

import (
	"fmt"
	"regexp"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeString strips control characters from user-supplied text
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// ValidateQuantity validates an asset quantity
func ValidateQuantity(quantity float64) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive: %.2f", quantity)
	}
	if quantity > 1000000 {
		return fmt.Errorf("quantity exceeds maximum limit: %.2f", quantity)
	}
	return nil
}
