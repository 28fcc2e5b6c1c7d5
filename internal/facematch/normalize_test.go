package facematch

import (
	"errors"
	"testing"
)

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"alice", "alice"},
		{"  alice  ", "alice"},
		{"Jan   Novák", "Jan Novák"},
		{"carol  smith", "carol smith"}, // inner runs collapse to one space
		{"Jan\tNovák\n", "Jan Novák"},
		{"Jan Novák", "Jan Novák"}, // decomposed accent is composed
		{"Alice", "Alice"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := CanonicalName(tt.input)
			if result != tt.expected {
				t.Errorf("CanonicalName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	name, err := ValidateName(" bob ")
	if err != nil {
		t.Fatalf("ValidateName() error = %v", err)
	}
	if name != "bob" {
		t.Errorf("ValidateName() = %q, want %q", name, "bob")
	}

	for _, input := range []string{"", "  ", "\t\n"} {
		if _, err := ValidateName(input); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ValidateName(%q) error = %v, want ErrInvalidInput", input, err)
		}
	}
}
