package card

import (
	"fmt"
	"strings"
)

// Card is a pre-written fact card of a case study (immutable value object).
type Card struct {
	id       string
	caseID   string
	title    string
	content  string
	synonyms []string
	initial  bool
}

// New validates and creates a Card.
// ID and case ID are required; title, content and synonyms may be empty.
func New(id, caseID, title, content string, synonyms []string, initial bool) (Card, error) {
	if strings.TrimSpace(id) == "" {
		return Card{}, fmt.Errorf("card ID is required")
	}
	if strings.TrimSpace(caseID) == "" {
		return Card{}, fmt.Errorf("card %q: case ID is required", id)
	}

	return Card{
		id:       id,
		caseID:   caseID,
		title:    title,
		content:  content,
		synonyms: cloneStrings(synonyms),
		initial:  initial,
	}, nil
}

// ID returns the card identifier, unique across the dataset.
func (c *Card) ID() string { return c.id }

// CaseID returns the identifier of the case study the card belongs to.
func (c *Card) CaseID() string { return c.caseID }

// Title returns the card title.
func (c *Card) Title() string { return c.title }

// Content returns the card body.
func (c *Card) Content() string { return c.content }

// Synonyms returns a copy of the alternative phrasings.
func (c *Card) Synonyms() []string { return cloneStrings(c.synonyms) }

// Initial reports whether this is the case's chief-complaint card.
func (c *Card) Initial() bool { return c.initial }

// EmbeddingText composes the text that represents the card in vector space:
// title, content and synonyms joined by single spaces, synonyms in their given order.
func (c *Card) EmbeddingText() string {
	parts := make([]string, 0, 2+len(c.synonyms))
	parts = append(parts, c.title, c.content)
	parts = append(parts, c.synonyms...)
	return strings.Join(parts, " ")
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
