package util

import (
	"strings"

	"github.com/google/uuid"
)

func IsValidUUID(s string) bool {
	return uuid.Validate(s) == nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName joins first and last name parts, skipping empty parts.
func DisplayName(firstName string, lastName *string) string {
	parts := []string{strings.TrimSpace(firstName)}
	if lastName != nil && strings.TrimSpace(*lastName) != "" {
		parts = append(parts, strings.TrimSpace(*lastName))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
