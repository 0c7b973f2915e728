package util

import "testing"

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases email", "  User@Example.COM ", "user@example.com"},
		{"keeps plain email", "user@example.com", "user@example.com"},
		{"strips phone formatting", "+1 (555) 123-4567", "15551234567"},
		{"keeps digit-only phone", "79991234567", "79991234567"},
		{"empty input", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeIdentifier(tt.input); got != tt.want {
				t.Errorf("NormalizeIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsEmailIdentifier(t *testing.T) {
	if !IsEmailIdentifier("user@example.com") {
		t.Error("expected email identifier")
	}
	if IsEmailIdentifier("15551234567") {
		t.Error("expected phone identifier")
	}
}
