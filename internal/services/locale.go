package services

import (
	"fmt"

	"github.com/glotbridge/glotbridge-backend/internal/platform/apperrors"
	"golang.org/x/text/language"
)

// CanonicalLocale parses a BCP 47 tag and returns its canonical spelling,
// so "EN-us" and "en-US" land on the same head tuple.
func CanonicalLocale(tag string) (string, error) {
	if tag == "" {
		return "", fmt.Errorf("empty locale: %w", apperrors.ErrInvalidArgument)
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("locale %q: %v: %w", tag, err, apperrors.ErrInvalidArgument)
	}
	return t.String(), nil
}
