package cards

// Strategy selects the pedagogical framing and card budget for one
// document category. Budgets are capped by the caller's requested
// maximum, never raised.
type Strategy struct {
	Category  string
	Framing   string
	CardCount int
}

var strategies = map[string]Strategy{
	"technical_document": {
		Category:  "technical_document",
		Framing:   "Focus on precise definitions, how mechanisms work, and the purpose of each component or API. Prefer 'what does X do' and 'how does Y work' questions over trivia.",
		CardCount: 12,
	},
	"research_paper": {
		Category:  "research_paper",
		Framing:   "Focus on the research question, methodology, key findings and their limitations. Ask about what was measured, what was found, and why it matters.",
		CardCount: 10,
	},
	"book_chapter": {
		Category:  "book_chapter",
		Framing:   "Focus on the central ideas, key arguments and memorable examples of the chapter. Ask questions that test understanding of the narrative, not page details.",
		CardCount: 12,
	},
	"blog_article": {
		Category:  "blog_article",
		Framing:   "Focus on the article's main claims and the practical takeaways a reader should remember. Keep questions concrete and actionable.",
		CardCount: 8,
	},
	"motivational_content": {
		Category:  "motivational_content",
		Framing:   "Focus on the core principles and habits being taught. Ask questions that help the reader recall and apply each principle.",
		CardCount: 6,
	},
	"business_document": {
		Category:  "business_document",
		Framing:   "Focus on decisions, figures, responsibilities and conclusions. Ask about who, what amount, which outcome and why.",
		CardCount: 8,
	},
}

var defaultStrategy = Strategy{
	Category:  "educational_content",
	Framing:   "Extract the most important factual information and core concepts. Ask clear, specific questions with factual, concise answers.",
	CardCount: 10,
}

// StrategyFor returns the strategy for a category, falling back to the
// default framing for unknown or unclassified content.
func StrategyFor(category string) Strategy {
	if s, ok := strategies[category]; ok {
		return s
	}
	return defaultStrategy
}
