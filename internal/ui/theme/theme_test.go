package theme

import "testing"

func TestSubjectColor(t *testing.T) {
	tests := []struct {
		hex      string
		fallback bool
	}{
		{"#ff0000", false},
		{"#A1B2C3", false},
		{"", true},
		{"red", true},
		{"#12345", true},
		{"#12345g", true},
	}
	for _, tt := range tests {
		got := SubjectColor(tt.hex)
		if (got == Primary) != tt.fallback {
			t.Errorf("SubjectColor(%q) fallback = %v, want %v", tt.hex, got == Primary, tt.fallback)
		}
	}
}
