// Package chunker splits normalized text into overlapping word windows
// sized by an approximate token budget.
package chunker

import (
	"errors"
	"strings"

	"github.com/mementolabs/deckgen/pkg/tokenizer"
)

// ErrOverlapTooLarge is returned when the overlap meets or exceeds the
// chunk size, which would make the window stride non-positive.
var ErrOverlapTooLarge = errors.New("chunker: overlap must be smaller than chunk size")

type Options struct {
	ChunkTokens   int // target window size in tokens
	OverlapTokens int // tokens shared between adjacent windows
}

func DefaultOptions() Options {
	return Options{ChunkTokens: 350, OverlapTokens: 60}
}

// Chunk is one window of the input text. Index is 0-based and gapless;
// StartChar/EndChar are word-offset estimates (5 chars per word), not
// exact byte positions.
type Chunk struct {
	Content    string
	Index      int
	StartChar  int
	EndChar    int
	TokenCount int
}

// Split slides a word window across text. Windows that collapse to
// whitespace are skipped without leaving an index gap. The token budget
// is converted to words with the fixed words-per-token ratio, so chunk
// boundaries are deterministic for a given input.
func Split(text string, opts Options) ([]Chunk, error) {
	if opts.ChunkTokens <= 0 {
		opts.ChunkTokens = 350
	}
	if opts.OverlapTokens < 0 {
		opts.OverlapTokens = 0
	}

	wordsPerChunk := int(float64(opts.ChunkTokens) * tokenizer.WordsPerToken)
	overlapWords := int(float64(opts.OverlapTokens) * tokenizer.WordsPerToken)
	stride := wordsPerChunk - overlapWords
	if stride <= 0 {
		return nil, ErrOverlapTooLarge
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	for i := 0; i < len(words); i += stride {
		end := i + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}

		content := strings.Join(words[i:end], " ")
		if strings.TrimSpace(content) == "" {
			continue
		}

		chunks = append(chunks, Chunk{
			Content:    content,
			Index:      len(chunks),
			StartChar:  i * 5,
			EndChar:    end * 5,
			TokenCount: tokenizer.Estimate(content),
		})
	}

	return chunks, nil
}
