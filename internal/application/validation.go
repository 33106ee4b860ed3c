package application

import (
	"fmt"
	"strings"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// ValidatePositive checks that a numeric parameter is strictly positive.
func ValidatePositive(fieldName string, value float64) error {
	if value <= 0 {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must be positive, got %v", displayName, value),
		}
	}
	return nil
}

// ValidateNonNegative checks that a numeric parameter is zero or above.
func ValidateNonNegative(fieldName string, value float64) error {
	if value < 0 {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must not be negative, got %v", displayName, value),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "testID" -> "test ID")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"testID":    "test ID",
		"fileID":    "file ID",
		"channelID": "channel ID",
		"keyID":     "key channel ID",
		"timeScale": "time scale",
		"tolerance": "tolerance",
		"gap":       "gap",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}
