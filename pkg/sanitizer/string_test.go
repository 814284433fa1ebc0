package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"already clean", "guest-42", "guest-42"},
		{"leading and trailing spaces", "  guest-42  ", "guest-42"},
		{"interior runs collapse", "deluxe   suite", "deluxe suite"},
		{"tabs and newlines", "deluxe\t\nsuite", "deluxe suite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.expected {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"simple", "Suite", "suite"},
		{"spaces to underscore", "Deluxe Suite", "deluxe_suite"},
		{"messy input", "  Deluxe -- Suite!  ", "deluxe_suite"},
		{"digits preserved", "Room Type 2", "room_type_2"},
		{"unicode letters preserved", "Suíte Júnior", "suíte_júnior"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeLabel(tt.input); got != tt.expected {
				t.Errorf("NormalizeLabel(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEscapeRegex(t *testing.T) {
	escaped := EscapeRegex("suite.*$")
	if escaped != `suite\.\*\$` {
		t.Errorf("EscapeRegex() = %q, want %q", escaped, `suite\.\*\$`)
	}
}
