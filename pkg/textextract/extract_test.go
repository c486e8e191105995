package textextract

import (
	"strings"
	"testing"
)

func TestFromHTML(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		want  string
	}{
		{
			"simple page",
			"<html><body><h1>Hello</h1><p>World</p></body></html>",
			"Hello World",
		},
		{
			"script content removed",
			"<html><body><script>var x = 1;</script><p>visible</p></body></html>",
			"visible",
		},
		{
			"style content removed",
			"<html><head><style>body { color: red }</style></head><body>text</body></html>",
			"text",
		},
		{
			"entities decoded",
			"<p>fish &amp; chips</p>",
			"fish & chips",
		},
		{
			"nested markup flattened",
			"<div><span>a</span> <b>b</b> <i>c</i></div>",
			"a b c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromHTML(tt.html, "Test"); got != tt.want {
				t.Errorf("FromHTML = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromHTMLEmptyYieldsPlaceholder(t *testing.T) {
	got := FromHTML("<html><body><script>only script</script></body></html>", "My Page")
	want := Placeholder("My Page")
	if got != want {
		t.Errorf("got %q, want placeholder %q", got, want)
	}
}

func TestPlaceholder(t *testing.T) {
	got := Placeholder("Quantum Notes")
	if !strings.Contains(got, "Quantum Notes") {
		t.Errorf("placeholder %q does not mention the title", got)
	}
	if !strings.Contains(got, "could not be extracted") {
		t.Errorf("placeholder %q missing explanation", got)
	}
}

func TestFromPDFGarbageYieldsPlaceholderOrSalvage(t *testing.T) {
	// Pure binary noise with no printable runs falls through every
	// extraction tier to the placeholder.
	noise := make([]byte, 256)
	for i := range noise {
		noise[i] = byte(0x80 + i%0x40)
	}
	got := FromPDF(noise, "Broken File")
	if got != Placeholder("Broken File") {
		t.Errorf("got %q, want placeholder", got)
	}
}

func TestFromPDFOperatorScan(t *testing.T) {
	// Not a parseable PDF, but carries a BT/ET text block the raw scan
	// can recover words from.
	raw := []byte("junkheader BT /F1 12 Tf 72 712 Td (Learning never stops) Tj ET trailer")
	got := FromPDF(raw, "Scan Test")
	if !strings.Contains(got, "Learning never stops") {
		t.Errorf("operator scan lost payload text: %q", got)
	}
}

func TestFromPDFSalvage(t *testing.T) {
	// Printable text embedded in binary noise, with no BT/ET blocks.
	data := append([]byte{0x00, 0x01, 0xFE}, []byte("plain recoverable words")...)
	data = append(data, 0xFD, 0x02)
	got := FromPDF(data, "Salvage Test")
	if !strings.Contains(got, "plain recoverable words") {
		t.Errorf("salvage lost payload text: %q", got)
	}
}
