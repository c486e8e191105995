package chunker

import (
	"errors"
	"strings"
	"testing"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word"
	}
	return strings.Join(parts, " ")
}

func TestSplitEmpty(t *testing.T) {
	chunks, err := Split("", DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks != nil {
		t.Fatalf("expected nil chunks, got %d", len(chunks))
	}

	chunks, err = Split("   \n\t  ", DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks != nil {
		t.Fatalf("expected nil chunks for whitespace input, got %d", len(chunks))
	}
}

func TestSplitSingleChunk(t *testing.T) {
	chunks, err := Split("just a few words here", DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "just a few words here" {
		t.Errorf("content = %q", chunks[0].Content)
	}
	if chunks[0].Index != 0 {
		t.Errorf("index = %d, want 0", chunks[0].Index)
	}
}

func TestSplitGaplessIndexes(t *testing.T) {
	chunks, err := Split(words(10000), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
	}
}

func TestSplitWindowSizing(t *testing.T) {
	// 350 tokens at 0.75 words/token is a 262-word window with a
	// 217-word stride, so 10000 words need ceil(10000/217) = 47 windows.
	chunks, err := Split(words(10000), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 47 {
		t.Errorf("chunk count = %d, want 47", len(chunks))
	}

	first := chunks[0]
	if got := len(strings.Fields(first.Content)); got != 262 {
		t.Errorf("first chunk words = %d, want 262", got)
	}
	if first.StartChar != 0 {
		t.Errorf("first StartChar = %d, want 0", first.StartChar)
	}

	second := chunks[1]
	if second.StartChar != 217*5 {
		t.Errorf("second StartChar = %d, want %d", second.StartChar, 217*5)
	}
}

func TestSplitOverlapTooLarge(t *testing.T) {
	_, err := Split(words(100), Options{ChunkTokens: 100, OverlapTokens: 100})
	if !errors.Is(err, ErrOverlapTooLarge) {
		t.Fatalf("expected ErrOverlapTooLarge, got %v", err)
	}

	_, err = Split(words(100), Options{ChunkTokens: 100, OverlapTokens: 200})
	if !errors.Is(err, ErrOverlapTooLarge) {
		t.Fatalf("expected ErrOverlapTooLarge, got %v", err)
	}
}

func TestSplitZeroOptionsUseDefaults(t *testing.T) {
	chunks, err := Split(words(300), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks with default options")
	}
}

func TestSplitOverlapContent(t *testing.T) {
	// Adjacent windows share overlap words: the tail of one chunk is
	// the head of the next.
	var b strings.Builder
	for i := 0; i < 600; i++ {
		b.WriteString("w")
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteString(" ")
	}
	chunks, err := Split(b.String(), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}

	firstWords := strings.Fields(chunks[0].Content)
	secondWords := strings.Fields(chunks[1].Content)
	overlap := 262 - 217
	tail := firstWords[len(firstWords)-overlap:]
	head := secondWords[:overlap]
	for i := range tail {
		if tail[i] != head[i] {
			t.Fatalf("overlap mismatch at %d: %q vs %q", i, tail[i], head[i])
		}
	}
}
