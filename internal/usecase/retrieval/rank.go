package retrieval

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/casecards/internal/domain"
	"github.com/kailas-cloud/casecards/internal/domain/hit"
	"github.com/kailas-cloud/casecards/internal/domain/index"
	"github.com/kailas-cloud/casecards/internal/domain/vector"
)

// Rank scores the cards of one case against a question vector and returns the best matches.
//
// Cards in revealed are skipped. Candidates are sorted by score descending; equal scores are
// ordered by card ID ascending. At most topK hits with score >= threshold are returned;
// subthreshold candidates are never used to fill the budget. An empty non-nil slice means
// no card qualified.
func Rank(
	snap *index.Snapshot, caseID string,
	query []float32, queryNorm float64,
	revealed map[string]struct{}, threshold float64, topK int,
) ([]hit.Hit, error) {
	if snap == nil {
		return nil, domain.ErrNotReady
	}
	if caseID == "" {
		return nil, fmt.Errorf("%w: case ID is required", domain.ErrInvalidInput)
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: question vector is empty", domain.ErrInvalidInput)
	}
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrInvalidInput, topK)
	}

	entries := snap.Case(caseID)
	scored := make([]hit.Hit, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if _, ok := revealed[e.CardID()]; ok {
			continue
		}
		s, err := vector.CosineSimilarity(query, queryNorm, e.Vector(), e.Norm())
		if err != nil {
			return nil, fmt.Errorf("score card %q: %w", e.CardID(), err)
		}
		if math.IsNaN(s) {
			continue
		}
		scored = append(scored, hit.New(e.CardID(), s))
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score() != scored[j].Score() {
			return scored[i].Score() > scored[j].Score()
		}
		return scored[i].CardID() < scored[j].CardID()
	})

	hits := make([]hit.Hit, 0, min(topK, len(scored)))
	for _, h := range scored {
		if len(hits) >= topK || h.Score() < threshold {
			// Sorted descending: nothing after a subthreshold score can qualify.
			break
		}
		hits = append(hits, h)
	}
	return hits, nil
}
