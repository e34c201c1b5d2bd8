package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spigell/jobsage/internal/jsearch"

	"go.uber.org/zap"
)

type stubScorer struct {
	mu    sync.Mutex
	fn    func(listing *jsearch.Listing) (int, error)
	calls int
}

func (s *stubScorer) Score(_ context.Context, _ string, listing *jsearch.Listing) (int, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(listing)
}

func makeListings(n int) []jsearch.Listing {
	listings := make([]jsearch.Listing, n)
	for i := range listings {
		listings[i] = jsearch.Listing{
			Title:    fmt.Sprintf("Job %d", i),
			Company:  "Acme",
			Location: "Austin",
		}
	}
	return listings
}

func TestScoreAllReturnsOneResultPerListing(t *testing.T) {
	scores := map[string]int{"Job 0": 80, "Job 1": 40, "Job 2": 95}
	scorer := &stubScorer{fn: func(listing *jsearch.Listing) (int, error) {
		return scores[listing.Title], nil
	}}

	coordinator := NewCoordinator(scorer, 2, zap.NewNop())
	out := coordinator.ScoreAll(context.Background(), "resume", makeListings(3))

	if len(out) != 3 {
		t.Fatalf("expected 3 scored listings, got %d", len(out))
	}

	// Slot order follows input order regardless of completion order.
	for i, scored := range out {
		expected := fmt.Sprintf("Job %d", i)
		if scored.Listing.Title != expected {
			t.Fatalf("slot %d holds %q, want %q", i, scored.Listing.Title, expected)
		}
		if scored.Score != scores[expected] {
			t.Fatalf("slot %d score %d, want %d", i, scored.Score, scores[expected])
		}
		if scored.Failed {
			t.Fatalf("slot %d unexpectedly flagged as failed", i)
		}
	}
}

func TestScoreAllMapsFailureToZero(t *testing.T) {
	scorer := &stubScorer{fn: func(listing *jsearch.Listing) (int, error) {
		if listing.Title == "Job 1" {
			return 0, errors.New("model down")
		}
		return 70, nil
	}}

	coordinator := NewCoordinator(scorer, 3, zap.NewNop())
	out := coordinator.ScoreAll(context.Background(), "resume", makeListings(3))

	if len(out) != 3 {
		t.Fatalf("expected 3 scored listings, got %d", len(out))
	}

	failed := out[1]
	if !failed.Failed || failed.Score != 0 {
		t.Fatalf("expected failed listing with zero score, got %+v", failed)
	}
	for _, idx := range []int{0, 2} {
		if out[idx].Failed || out[idx].Score != 70 {
			t.Fatalf("slot %d affected by sibling failure: %+v", idx, out[idx])
		}
	}
}

func TestScoreAllRespectsConcurrencyBound(t *testing.T) {
	const workers = 3

	var inFlight, peak atomic.Int64
	scorer := &stubScorer{fn: func(_ *jsearch.Listing) (int, error) {
		current := inFlight.Add(1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return 50, nil
	}}

	coordinator := NewCoordinator(scorer, workers, zap.NewNop())
	out := coordinator.ScoreAll(context.Background(), "resume", makeListings(12))

	if len(out) != 12 {
		t.Fatalf("expected 12 scored listings, got %d", len(out))
	}
	if got := peak.Load(); got > workers {
		t.Fatalf("observed %d concurrent calls, bound is %d", got, workers)
	}
}

func TestScoreAllEmptyInput(t *testing.T) {
	scorer := &stubScorer{fn: func(_ *jsearch.Listing) (int, error) {
		t.Fatal("scorer must not be called for empty input")
		return 0, nil
	}}

	coordinator := NewCoordinator(scorer, 5, zap.NewNop())
	out := coordinator.ScoreAll(context.Background(), "resume", nil)

	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d", len(out))
	}
}
