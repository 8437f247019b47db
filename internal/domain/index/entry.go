package index

import "github.com/kailas-cloud/casecards/internal/domain/vector"

// Entry is the indexed form of one card: its embedding and the precomputed norm.
type Entry struct {
	cardID string
	caseID string
	vector []float32
	norm   float64
}

// NewEntry creates an Entry and precomputes the vector norm.
// The entry takes ownership of vec; callers must not modify it afterwards.
func NewEntry(cardID, caseID string, vec []float32) Entry {
	return Entry{cardID: cardID, caseID: caseID, vector: vec, norm: vector.Norm(vec)}
}

// CardID returns the identifier of the indexed card.
func (e *Entry) CardID() string { return e.cardID }

// CaseID returns the case the card belongs to.
func (e *Entry) CaseID() string { return e.caseID }

// Vector returns the card embedding.
func (e *Entry) Vector() []float32 { return e.vector }

// Norm returns the precomputed Euclidean norm of the embedding.
func (e *Entry) Norm() float64 { return e.norm }
