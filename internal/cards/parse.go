package cards

import (
	"encoding/json"
	"fmt"
	"strings"
)

// twoLine is one repaired card: a question line and an answer line.
type twoLine struct {
	front string
	back  string
}

type rawCard struct {
	Text string `json:"text"`
}

// parseCards recovers card entries from a model reply. Replies are
// frequently wrapped in code fences or prose, so the parser locates the
// outermost JSON array before unmarshaling. Entries that do not split
// into exactly two non-empty lines are dropped; overlong lines are
// clipped. A reply with nothing usable yields nil.
func parseCards(reply string) []twoLine {
	body := strings.TrimSpace(reply)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")

	start := strings.Index(body, "[")
	end := strings.LastIndex(body, "]")
	if start == -1 || end == -1 || end <= start {
		return nil
	}

	var raw []rawCard
	if err := json.Unmarshal([]byte(body[start:end+1]), &raw); err != nil {
		return nil
	}

	var cards []twoLine
	for _, r := range raw {
		lines := strings.Split(strings.TrimSpace(r.Text), "\n")
		if len(lines) != 2 {
			continue
		}
		front := clipLine(lines[0])
		back := clipLine(lines[1])
		if front == "" || back == "" {
			continue
		}
		cards = append(cards, twoLine{front: front, back: back})
	}
	return cards
}

func clipLine(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLineChars {
		runes := []rune(s)
		if len(runes) > maxLineChars {
			s = string(runes[:maxLineChars])
		}
	}
	return s
}

// fallbackCards builds a deterministic study set from the deck title so
// a deck is never left empty when the model is unavailable. Capped by
// maxCards when positive.
func fallbackCards(title string, maxCards int) []twoLine {
	if title == "" {
		title = "this document"
	}
	cards := []twoLine{
		{
			front: fmt.Sprintf("What is the main topic of %s?", title),
			back:  "Review the document to identify its central subject.",
		},
		{
			front: fmt.Sprintf("What are the key points covered in %s?", title),
			back:  "List the main ideas and arguments presented in the document.",
		},
		{
			front: fmt.Sprintf("What important details does %s contain?", title),
			back:  "Note the specific facts, figures, or examples from the document.",
		},
		{
			front: fmt.Sprintf("How do the ideas in %s connect to each other?", title),
			back:  "Trace how each section builds on the previous one.",
		},
		{
			front: fmt.Sprintf("What should you remember from %s?", title),
			back:  "Summarize the document's most important takeaway in one sentence.",
		},
	}
	for i := range cards {
		cards[i].front = clipLine(cards[i].front)
		cards[i].back = clipLine(cards[i].back)
	}
	if maxCards > 0 && maxCards < len(cards) {
		cards = cards[:maxCards]
	}
	return cards
}
