package security

import (
	"errors"
	"testing"
)

func TestDefaultPasswordValidator(t *testing.T) {
	validator := DefaultPasswordValidator()

	cases := []struct {
		name     string
		password string
		wantCode string
	}{
		{name: "too short", password: "aB1!", wantCode: "min_length"},
		{name: "single class", password: "aaaaaaaaaaaa", wantCode: "character_classes"},
		{name: "common pattern", password: "password1", wantCode: "weak_password"},
		{name: "strong passphrase", password: "Vast-Quarry-Lantern-91"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.Validate(tc.password)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("expected %q to pass: %v", tc.password, err)
				}
				return
			}

			var violation *PasswordValidationError
			if !errors.As(err, &violation) {
				t.Fatalf("expected a PasswordValidationError, got %v", err)
			}
			if violation.Code != tc.wantCode {
				t.Fatalf("expected code %q, got %q", tc.wantCode, violation.Code)
			}
		})
	}
}

func TestStrengthRuleUsesUserInputs(t *testing.T) {
	rule := RequirePasswordStrengthRule(3, "alice@example.com")

	// The account email counts as a known input and weakens the score.
	if err := rule.Validate("alice@example.com1"); err == nil {
		t.Fatal("a password built from the account email must be rejected")
	}
	if err := rule.Validate("Vast-Quarry-Lantern-91"); err != nil {
		t.Fatalf("an unrelated passphrase should pass: %v", err)
	}
}

func TestNilValidator(t *testing.T) {
	var validator *PasswordValidator
	if err := validator.Validate("anything"); err == nil {
		t.Fatal("a nil validator must refuse to pass anything")
	}
}
