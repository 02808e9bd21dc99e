package mcp

import (
	"fmt"

	"github.com/felixgeelhaar/bikereg/internal/validation"
)

// ValidateVerifyInput validates VerifyInput fields.
func ValidateVerifyInput(in *VerifyInput) error {
	if err := validation.ValidateSerialNumber(in.SerialNumber); err != nil {
		return fmt.Errorf("invalid serial_number: %w", err)
	}
	return nil
}

// ValidateRecordFields rejects malformed identifiers and control characters.
// Business rules are left to the registration schema.
func ValidateRecordFields(in *RecordFields) error {
	if err := validation.ValidateSerialNumber(in.SerialNumber); err != nil {
		return fmt.Errorf("invalid serial_number: %w", err)
	}

	text := map[string]string{
		"first_name":         in.FirstName,
		"last_name":          in.LastName,
		"email":              in.Email,
		"country":            in.Country,
		"preferred_language": in.PreferredLanguage,
		"gender":             in.Gender,
		"date_of_purchase":   in.DateOfPurchase,
		"date_of_birth":      in.DateOfBirth,
	}
	for name, value := range text {
		if err := validation.ValidateText(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}
