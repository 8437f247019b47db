package hit

// Hit is a card that matched a question, with its cosine similarity score.
type Hit struct {
	cardID string
	score  float64
}

// New creates a hit.
func New(cardID string, score float64) Hit {
	return Hit{cardID: cardID, score: score}
}

// CardID returns the matched card identifier.
func (h *Hit) CardID() string { return h.cardID }

// Score returns the cosine similarity between question and card.
func (h *Hit) Score() float64 { return h.score }
