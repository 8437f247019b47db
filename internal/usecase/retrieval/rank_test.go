package retrieval

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/kailas-cloud/casecards/internal/domain"
	"github.com/kailas-cloud/casecards/internal/domain/index"
)

var question = []float32{1, 0}

func mustSnapshot(t *testing.T, entries ...index.Entry) *index.Snapshot {
	t.Helper()
	snap, err := index.NewSnapshot(entries, time.Now())
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return snap
}

// at returns a 2-d unit vector whose cosine similarity with [1,0] is score.
func at(score float64) []float32 {
	return []float32{float32(score), float32(math.Sqrt(1 - score*score))}
}

func ids(t *testing.T, snap *index.Snapshot, caseID string, revealed map[string]struct{}, threshold float64, topK int) []string {
	t.Helper()
	hits, err := Rank(snap, caseID, question, 1, revealed, threshold, topK)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	out := make([]string, len(hits))
	for i := range hits {
		out[i] = hits[i].CardID()
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRank_TopKAndOrder(t *testing.T) {
	snap := mustSnapshot(t,
		index.NewEntry("low", "1", at(0.5)),
		index.NewEntry("high", "1", at(0.9)),
		index.NewEntry("mid", "1", at(0.7)),
	)

	tests := []struct {
		name string
		topK int
		want []string
	}{
		{"top1", 1, []string{"high"}},
		{"top2", 2, []string{"high", "mid"}},
		{"top larger than candidates", 10, []string{"high", "mid", "low"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(t, snap, "1", nil, 0.4, tc.topK)
			if !equal(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRank_ScoresNonIncreasing(t *testing.T) {
	snap := mustSnapshot(t,
		index.NewEntry("a", "1", at(0.41)),
		index.NewEntry("b", "1", at(0.99)),
		index.NewEntry("c", "1", at(0.63)),
		index.NewEntry("d", "1", at(0.77)),
		index.NewEntry("e", "1", at(0.52)),
	)
	hits, err := Rank(snap, "1", question, 1, nil, 0, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score() > hits[i-1].Score() {
			t.Fatalf("hits not in descending order at %d: %f > %f", i, hits[i].Score(), hits[i-1].Score())
		}
	}
}

func TestRank_ThresholdNeverFilled(t *testing.T) {
	snap := mustSnapshot(t,
		index.NewEntry("above", "1", at(0.6)),
		index.NewEntry("below", "1", at(0.3)),
	)
	got := ids(t, snap, "1", nil, 0.4, 5)
	if !equal(got, []string{"above"}) {
		t.Errorf("expected only the above-threshold card, got %v", got)
	}
}

func TestRank_ThresholdInclusive(t *testing.T) {
	snap := mustSnapshot(t, index.NewEntry("exact", "1", []float32{1, 0}))
	got := ids(t, snap, "1", nil, 1.0, 1)
	if !equal(got, []string{"exact"}) {
		t.Errorf("score equal to threshold must be accepted, got %v", got)
	}
}

func TestRank_RevealedExcluded(t *testing.T) {
	snap := mustSnapshot(t,
		index.NewEntry("best", "1", at(0.95)),
		index.NewEntry("next", "1", at(0.6)),
	)
	revealed := map[string]struct{}{"best": {}}
	got := ids(t, snap, "1", revealed, 0.4, 5)
	if !equal(got, []string{"next"}) {
		t.Errorf("expected revealed card to be excluded, got %v", got)
	}
}

func TestRank_ScopedToCase(t *testing.T) {
	snap := mustSnapshot(t,
		index.NewEntry("mine", "1", at(0.5)),
		index.NewEntry("other", "2", at(1)),
	)
	got := ids(t, snap, "1", nil, 0.4, 5)
	if !equal(got, []string{"mine"}) {
		t.Errorf("expected only case 1 cards, got %v", got)
	}
}

func TestRank_UnknownCaseIsEmpty(t *testing.T) {
	snap := mustSnapshot(t, index.NewEntry("c1", "1", at(1)))
	hits, err := Rank(snap, "404", question, 1, nil, 0.4, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits == nil || len(hits) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", hits)
	}
}

func TestRank_TieBreakByCardID(t *testing.T) {
	snap := mustSnapshot(t,
		index.NewEntry("zeta", "1", []float32{1, 0}),
		index.NewEntry("alpha", "1", []float32{2, 0}),
		index.NewEntry("mu", "1", []float32{3, 0}),
	)
	got := ids(t, snap, "1", nil, 0.4, 3)
	if !equal(got, []string{"alpha", "mu", "zeta"}) {
		t.Errorf("expected ties ordered by card ID, got %v", got)
	}
}

func TestRank_DegenerateQueryScoresZero(t *testing.T) {
	snap := mustSnapshot(t, index.NewEntry("c1", "1", []float32{1, 0}))
	hits, err := Rank(snap, "1", []float32{0, 0}, 1, nil, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].Score() != 0 {
		t.Errorf("expected one zero-score hit at threshold 0, got %+v", hits)
	}
}

func TestRank_Errors(t *testing.T) {
	snap := mustSnapshot(t, index.NewEntry("c1", "1", []float32{1, 0}))

	tests := []struct {
		name   string
		snap   *index.Snapshot
		caseID string
		query  []float32
		topK   int
		want   error
	}{
		{"not ready", nil, "1", question, 1, domain.ErrNotReady},
		{"empty case", snap, "", question, 1, domain.ErrInvalidInput},
		{"empty query", snap, "1", nil, 1, domain.ErrInvalidInput},
		{"zero topK", snap, "1", question, 0, domain.ErrInvalidInput},
		{"dimension mismatch", snap, "1", []float32{1, 0, 0}, 1, domain.ErrVectorDimMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Rank(tc.snap, tc.caseID, tc.query, 1, nil, 0.4, tc.topK)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
