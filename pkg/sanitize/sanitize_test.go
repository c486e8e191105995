package sanitize

import (
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Hello World", "Hello World"},
		{"unicode escape removed", `caf\u00e9 latte`, "caf latte"},
		{"literal escape to space", `one\ntwo\tthree`, "one two three"},
		{"control chars to space", "a\x01b\x02c", "a b c"},
		{"noncharacters dropped", "ab\ufffecd\uffffef", "abcdef"},
		{"whitespace collapsed", "a \t\n  b\r\n c", "a b c"},
		{"nbsp collapsed", "Hello World", "Hello World"},
		{"trimmed", "  padded  ", "padded"},
		{"combining marks normalized", "cafe\u0301", "caf\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTextIdempotent(t *testing.T) {
	inputs := []string{
		"Hello World",
		`mixed \n content\t with "quotes"`,
		"a\x00b\x1fc d",
		strings.Repeat("word ", 500),
		// Long enough that the length cap lands on a collapsed space.
		strings.Repeat("a ", MaxLength),
	}

	for _, in := range inputs {
		once := Text(in)
		twice := Text(once)
		if once != twice {
			t.Errorf("Text not idempotent for input of len %d: first len %d, second len %d", len(in), len(once), len(twice))
		}
		if once != strings.TrimSpace(once) {
			t.Errorf("Text output has surrounding whitespace: %q...%q", once[:1], once[len(once)-1:])
		}
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"under limit", "hello", 10, "hello"},
		{"exact limit", "hello", 5, "hello"},
		{"ascii cut", "hello", 3, "hel"},
		{"mid-rune backs off", "abé", 3, "ab"},
		{"rune boundary kept", "abé", 4, "abé"},
		{"zero", "hello", 0, ""},
		{"negative", "hello", -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clip(tt.input, tt.max); got != tt.want {
				t.Errorf("Clip(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestTextTruncates(t *testing.T) {
	in := strings.Repeat("a", MaxLength+500)
	got := Text(in)
	if len(got) != MaxLength {
		t.Fatalf("len = %d, want %d", len(got), MaxLength)
	}
}

func TestForJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"quotes removed", `say "hello"`, "say hello"},
		{"escapes removed", `path\to\file`, "path o ile"},
		{"plain passthrough", "no special chars", "no special chars"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForJSON(tt.input); got != tt.want {
				t.Errorf("ForJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
