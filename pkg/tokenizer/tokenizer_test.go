package tokenizer

import "testing"

func TestEstimate(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"12345678", 2},
	}

	for _, tt := range tests {
		if got := Estimate(tt.input); got != tt.want {
			t.Errorf("Estimate(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
