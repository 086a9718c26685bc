package fixity

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateIdentifierAcceptsUUIDForms(t *testing.T) {
	const canonical = "3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5b"

	testCases := []struct {
		name  string
		input string
	}{
		{name: "canonical", input: canonical},
		{name: "upper case", input: "3F1E6C1A-5A7B-4C4E-9C2F-0C1D2E3F4A5B"},
		{name: "braces", input: "{3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5b}"},
		{name: "urn", input: "urn:uuid:3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5b"},
		{name: "bare hex", input: "3f1e6c1a5a7b4c4e9c2f0c1d2e3f4a5b"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := ValidateIdentifier(testCase.input)
			if err != nil {
				t.Fatalf("ValidateIdentifier(%q) error = %v", testCase.input, err)
			}
			if got != canonical {
				t.Fatalf("ValidateIdentifier(%q) = %q, want %q", testCase.input, got, canonical)
			}
		})
	}
}

func TestValidateIdentifierRejectsMalformedStrings(t *testing.T) {
	inputs := []string{
		"",
		"not-a-uuid",
		"3f1e6c1a-5a7b-4c4e-9c2f",
		"3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5g",
		"../../api/v2/file/",
		"3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5b/check_fixity",
	}

	for _, input := range inputs {
		_, err := ValidateIdentifier(input)
		if !errors.Is(err, ErrInvalidIdentifier) {
			t.Fatalf("ValidateIdentifier(%q) error = %v, want ErrInvalidIdentifier", input, err)
		}
	}
}

func TestValidateIdentifierRejectsNonStrings(t *testing.T) {
	inputs := []any{
		nil,
		42,
		[]byte("3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5b"),
		json.Number("1"),
		map[string]string{"uuid": "3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5b"},
	}

	for _, input := range inputs {
		_, err := ValidateIdentifier(input)
		if !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("ValidateIdentifier(%#v) error = %v, want ErrTypeMismatch", input, err)
		}
		if errors.Is(err, ErrInvalidIdentifier) {
			t.Fatalf("ValidateIdentifier(%#v) must not report ErrInvalidIdentifier", input)
		}
	}
}
