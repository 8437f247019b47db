package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/casecards/internal/domain"
	"github.com/kailas-cloud/casecards/internal/domain/card"
	"github.com/kailas-cloud/casecards/internal/domain/index"
	"github.com/kailas-cloud/casecards/internal/domain/vector"
)

const (
	// DefaultThreshold is the minimum cosine similarity for a card to be revealed.
	DefaultThreshold = 0.40
	// DefaultTopK is the maximum number of cards revealed per question.
	DefaultTopK = 1
)

// Match is a revealed card with its similarity score.
type Match struct {
	Card  card.Card
	Score float64
}

// Answer is the outcome of a question. NoHit is true exactly when Matches is empty.
type Answer struct {
	Matches []Match
	NoHit   bool
}

// Stats describes the published index.
type Stats struct {
	Ready     bool
	Cards     int
	Cases     int
	Dimension int
	BuiltAt   time.Time
}

// state pairs a snapshot with the cards it was built from; both are swapped together.
type state struct {
	snapshot *index.Snapshot
	cards    map[string]card.Card
	initial  map[string]string // case ID -> initial card ID
}

// Service answers questions against the current card index.
// Reads are lock-free; BuildIndex publishes a new state with a single atomic store.
type Service struct {
	builder   IndexBuilder
	embed     Embedder
	threshold float64
	topK      int

	current atomic.Pointer[state]
	buildMu sync.Mutex
}

// New creates a retrieval service with the default threshold and topK.
func New(builder IndexBuilder, embed Embedder) *Service {
	return &Service{
		builder:   builder,
		embed:     embed,
		threshold: DefaultThreshold,
		topK:      DefaultTopK,
	}
}

// WithThreshold sets the minimum similarity score.
func (s *Service) WithThreshold(threshold float64) *Service {
	s.threshold = threshold
	return s
}

// WithTopK sets the maximum number of hits per question. Values below 1 are ignored.
func (s *Service) WithTopK(topK int) *Service {
	if topK > 0 {
		s.topK = topK
	}
	return s
}

// BuildIndex embeds cards and replaces the published index.
// On failure the previously published index, if any, stays in place.
func (s *Service) BuildIndex(ctx context.Context, cards []card.Card) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	snap, err := s.builder.Build(ctx, cards)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	st := &state{
		snapshot: snap,
		cards:    make(map[string]card.Card, len(cards)),
		initial:  make(map[string]string),
	}
	for _, c := range cards {
		st.cards[c.ID()] = c
		if _, ok := st.initial[c.CaseID()]; !ok && c.Initial() {
			st.initial[c.CaseID()] = c.ID()
		}
	}

	s.current.Store(st)
	return nil
}

// Ready reports whether an index has been published.
func (s *Service) Ready() bool {
	return s.current.Load() != nil
}

// Stats returns metadata of the published index.
func (s *Service) Stats() Stats {
	st := s.current.Load()
	if st == nil {
		return Stats{}
	}
	return Stats{
		Ready:     true,
		Cards:     st.snapshot.Len(),
		Cases:     st.snapshot.Cases(),
		Dimension: st.snapshot.Dimension(),
		BuiltAt:   st.snapshot.BuiltAt(),
	}
}

// InitialCard returns the chief-complaint card of a case.
func (s *Service) InitialCard(caseID string) (card.Card, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return card.Card{}, fmt.Errorf("%w: case ID is required", domain.ErrInvalidInput)
	}

	st := s.current.Load()
	if st == nil {
		return card.Card{}, domain.ErrNotReady
	}

	id, ok := st.initial[caseID]
	if !ok {
		return card.Card{}, fmt.Errorf("initial card for case %q: %w", caseID, domain.ErrNotFound)
	}
	return st.cards[id], nil
}

// Ask embeds the question and reveals the best matching cards of the case
// that are not already in revealed.
func (s *Service) Ask(ctx context.Context, caseID, question string, revealed []string) (Answer, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return Answer{}, fmt.Errorf("%w: case ID is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(question) == "" {
		return Answer{}, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	// Pin one snapshot for the whole request.
	st := s.current.Load()
	if st == nil {
		return Answer{}, domain.ErrNotReady
	}

	embResult, err := s.embed.Embed(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("vectorize question: %w", err)
	}
	if len(embResult.Embedding) == 0 {
		return Answer{}, fmt.Errorf("vectorize question: empty vector: %w", domain.ErrEmbeddingProviderError)
	}

	domain.UsageFromContext(ctx).AddTokens(embResult.TotalTokens)

	revealedSet := make(map[string]struct{}, len(revealed))
	for _, id := range revealed {
		revealedSet[id] = struct{}{}
	}

	hits, err := Rank(
		st.snapshot, caseID,
		embResult.Embedding, vector.Norm(embResult.Embedding),
		revealedSet, s.threshold, s.topK,
	)
	if err != nil {
		return Answer{}, fmt.Errorf("rank cards: %w", err)
	}

	matches := make([]Match, 0, len(hits))
	for i := range hits {
		matches = append(matches, Match{Card: st.cards[hits[i].CardID()], Score: hits[i].Score()})
	}
	return Answer{Matches: matches, NoHit: len(matches) == 0}, nil
}
