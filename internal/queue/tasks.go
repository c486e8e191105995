package queue

const (
	TypeSourceProcess = "source:process"
	TypeCardsGenerate = "cards:generate"
)

// Payloads carry the acting user explicitly because asynq workers run
// outside any HTTP request and must rebuild the user context.

type SourceProcessPayload struct {
	SourceID string `json:"source_id"`
	UserID   string `json:"user_id"`
}

type CardsGeneratePayload struct {
	DeckID   string `json:"deck_id"`
	UserID   string `json:"user_id"`
	MaxCards int    `json:"max_cards,omitempty"`
	Category string `json:"category,omitempty"`
}
