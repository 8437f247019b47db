package index

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/casecards/internal/domain"
)

// Snapshot is an immutable card index: one entry per card, grouped by case.
// A snapshot is built once and replaced wholesale; it is safe for concurrent reads.
type Snapshot struct {
	byCase    map[string][]Entry
	size      int
	dimension int
	builtAt   time.Time
}

// NewSnapshot validates entries and groups them by case.
// Entries must be non-empty, have unique card IDs and share one vector dimension.
func NewSnapshot(entries []Entry, builtAt time.Time) (*Snapshot, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: snapshot needs at least one entry", domain.ErrInvalidInput)
	}

	dim := len(entries[0].vector)
	if dim == 0 {
		return nil, fmt.Errorf("%w: card %q has an empty vector", domain.ErrInvalidInput, entries[0].cardID)
	}

	seen := make(map[string]struct{}, len(entries))
	byCase := make(map[string][]Entry)
	for _, e := range entries {
		if len(e.vector) != dim {
			return nil, fmt.Errorf("card %q: %w", e.cardID, domain.NewDimensionMismatch(len(e.vector), dim))
		}
		if _, dup := seen[e.cardID]; dup {
			return nil, fmt.Errorf("%w: duplicate card ID %q", domain.ErrInvalidInput, e.cardID)
		}
		seen[e.cardID] = struct{}{}
		byCase[e.caseID] = append(byCase[e.caseID], e)
	}

	return &Snapshot{
		byCase:    byCase,
		size:      len(entries),
		dimension: dim,
		builtAt:   builtAt,
	}, nil
}

// Case returns the entries of one case. The slice must not be modified.
func (s *Snapshot) Case(caseID string) []Entry { return s.byCase[caseID] }

// Len returns the total number of entries.
func (s *Snapshot) Len() int { return s.size }

// Cases returns the number of distinct cases.
func (s *Snapshot) Cases() int { return len(s.byCase) }

// Dimension returns the vector dimension shared by all entries.
func (s *Snapshot) Dimension() int { return s.dimension }

// BuiltAt returns when the snapshot was built.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }
