package casecards

import "time"

// Card is a fact card of a case study.
type Card struct {
	ID       string
	CaseID   string
	Title    string
	Content  string
	Synonyms []string
	Initial  bool
}

// Match is a revealed card with its cosine similarity to the question.
type Match struct {
	Card  Card
	Score float64
}

// Answer is the outcome of Ask. NoHit is true exactly when Matches is empty.
type Answer struct {
	Matches []Match
	NoHit   bool
}

// IndexStats describes the published card index.
type IndexStats struct {
	Ready     bool
	Cards     int
	Cases     int
	Dimension int
	BuiltAt   time.Time
}
