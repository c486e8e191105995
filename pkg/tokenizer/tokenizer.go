// Package tokenizer estimates token counts without a model-specific
// tokenizer. The heuristics match what the rest of the pipeline assumes:
// roughly 4 characters per token and 0.75 words per token for English.
package tokenizer

// WordsPerToken converts between a token budget and a word-window size.
const WordsPerToken = 0.75

// Estimate returns a rough token count for text, never less than 1 for
// non-empty input.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	n := (len(text) + 3) / 4
	if n < 1 {
		n = 1
	}
	return n
}
