package api

import (
	"errors"
	"testing"

	"github.com/beneflow/benefit-service/internal/app"
)

func TestParseIntOrDefault(t *testing.T) {
	tests := []struct {
		input    string
		fallback int
		want     int
	}{
		{input: "3", fallback: 0, want: 3},
		{input: " 7 ", fallback: 0, want: 7},
		{input: "", fallback: 10, want: 10},
		{input: "   ", fallback: 10, want: 10},
		{input: "abc", fallback: 10, want: 10},
		{input: "-2", fallback: 0, want: -2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseIntOrDefault(tt.input, tt.fallback)
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestIsValidationError(t *testing.T) {
	for _, err := range []error{app.ErrNameRequired, app.ErrDescriptionRequired, app.ErrBalanceTooLow} {
		if !isValidationError(err) {
			t.Errorf("expected %v to classify as a validation error", err)
		}
	}

	for _, err := range []error{app.ErrDuplicateName, app.ErrInsufficientBalance, errors.New("boom")} {
		if isValidationError(err) {
			t.Errorf("expected %v not to classify as a validation error", err)
		}
	}
}
