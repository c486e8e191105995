package cards

import (
	"strings"
	"testing"
)

func TestParseCards(t *testing.T) {
	t.Run("plain array", func(t *testing.T) {
		got := parseCards(`[{"text":"What is Go?\nA programming language."}]`)
		if len(got) != 1 {
			t.Fatalf("parsed %d cards, want 1", len(got))
		}
		if got[0].front != "What is Go?" || got[0].back != "A programming language." {
			t.Errorf("got %+v", got[0])
		}
	})

	t.Run("code fence stripped", func(t *testing.T) {
		reply := "```json\n[{\"text\":\"Q\\nA\"}]\n```"
		got := parseCards(reply)
		if len(got) != 1 {
			t.Fatalf("parsed %d cards, want 1", len(got))
		}
	})

	t.Run("surrounding prose ignored", func(t *testing.T) {
		reply := `Here are your cards: [{"text":"Q\nA"}] Hope they help!`
		got := parseCards(reply)
		if len(got) != 1 {
			t.Fatalf("parsed %d cards, want 1", len(got))
		}
	})

	t.Run("malformed entries dropped", func(t *testing.T) {
		reply := `[
			{"text":"valid front\nvalid back"},
			{"text":"only one line"},
			{"text":"three\nlines\nhere"},
			{"text":"\n"},
			{"text":"ok\nfine"}
		]`
		got := parseCards(reply)
		if len(got) != 2 {
			t.Fatalf("parsed %d cards, want 2", len(got))
		}
	})

	t.Run("overlong lines clipped", func(t *testing.T) {
		long := strings.Repeat("x", 300)
		got := parseCards(`[{"text":"` + long + `\nshort answer"}]`)
		if len(got) != 1 {
			t.Fatalf("parsed %d cards, want 1", len(got))
		}
		if len(got[0].front) != maxLineChars {
			t.Errorf("front length = %d, want %d", len(got[0].front), maxLineChars)
		}
	})

	t.Run("garbage yields nil", func(t *testing.T) {
		for _, reply := range []string{"", "no json here", "{}", `{"text":"a\nb"}`, "[not json]"} {
			if got := parseCards(reply); got != nil {
				t.Errorf("parseCards(%q) = %v, want nil", reply, got)
			}
		}
	})
}

func TestFallbackCards(t *testing.T) {
	got := fallbackCards("Intro to Biology", 0)
	if len(got) != 5 {
		t.Fatalf("got %d cards, want 5", len(got))
	}
	for i, c := range got {
		if c.front == "" || c.back == "" {
			t.Errorf("card %d has empty side: %+v", i, c)
		}
		if len(c.front) > maxLineChars || len(c.back) > maxLineChars {
			t.Errorf("card %d exceeds line limit", i)
		}
	}
	if !strings.Contains(got[0].front, "Intro to Biology") {
		t.Errorf("first card does not reference the title: %q", got[0].front)
	}
}

func TestFallbackCardsCapped(t *testing.T) {
	got := fallbackCards("T", 3)
	if len(got) != 3 {
		t.Fatalf("got %d cards, want 3", len(got))
	}
}

func TestFallbackCardsEmptyTitle(t *testing.T) {
	got := fallbackCards("", 0)
	if len(got) != 5 {
		t.Fatalf("got %d cards, want 5", len(got))
	}
	if !strings.Contains(got[0].front, "this document") {
		t.Errorf("empty title not substituted: %q", got[0].front)
	}
}

func TestStrategyFor(t *testing.T) {
	if s := StrategyFor("technical_document"); s.CardCount != 12 {
		t.Errorf("technical_document count = %d, want 12", s.CardCount)
	}
	if s := StrategyFor("unknown_label"); s.Category != "educational_content" {
		t.Errorf("unknown label strategy = %q, want default", s.Category)
	}
	if s := StrategyFor(""); s.CardCount != 10 {
		t.Errorf("empty label count = %d, want 10", s.CardCount)
	}
}
