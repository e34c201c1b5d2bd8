// Package scoring runs the fit scorer over a listing set under a
// fixed concurrency bound.
package scoring

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/spigell/jobsage/internal/ai"
	"github.com/spigell/jobsage/internal/jsearch"

	"go.uber.org/zap"
)

const defaultWorkers = 5

// Scored pairs a listing with its match score. A failed call keeps the
// listing with a zero score and the Failed flag set.
type Scored struct {
	Listing jsearch.Listing
	Score   int
	Failed  bool
}

type Coordinator struct {
	scorer  ai.Scorer
	workers int
	logger  *zap.Logger
}

func NewCoordinator(scorer ai.Scorer, workers int, logger *zap.Logger) *Coordinator {
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Coordinator{
		scorer:  scorer,
		workers: workers,
		logger:  logger,
	}
}

// ScoreAll rates every listing against the resume. The output always has the
// same length and order as the input: each worker writes only its own indexed
// slot, and a failed call yields score 0 with the flag set instead of being
// dropped. ScoreAll returns only after every task completed.
func (c *Coordinator) ScoreAll(ctx context.Context, resume string, listings []jsearch.Listing) []Scored {
	out := make([]Scored, len(listings))
	if len(listings) == 0 {
		return out
	}

	total := len(listings)
	workers := c.workers
	if workers > total {
		workers = total
	}

	c.logger.Info("scoring listings",
		zap.Int("count", total),
		zap.Int("workers", workers),
	)

	type job struct {
		idx     int
		listing jsearch.Listing
	}

	jobs := make(chan job)

	var wg sync.WaitGroup
	var completed atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				out[j.idx] = c.scoreOne(ctx, resume, j.listing)

				done := completed.Add(1)
				c.logger.Info("scored listing",
					zap.Int64("done", done),
					zap.Int("total", total),
					zap.String("title", j.listing.Title),
					zap.Int("score", out[j.idx].Score),
				)
			}
		}()
	}

	for i, listing := range listings {
		jobs <- job{idx: i, listing: listing}
	}
	close(jobs)

	wg.Wait()

	return out
}

func (c *Coordinator) scoreOne(ctx context.Context, resume string, listing jsearch.Listing) Scored {
	scored := Scored{Listing: listing}

	score, err := c.scorer.Score(ctx, resume, &listing)
	if err != nil {
		c.logger.Warn("scoring failed",
			zap.String("title", listing.Title),
			zap.String("company", listing.Company),
			zap.Error(err),
		)
		scored.Failed = true
		return scored
	}

	scored.Score = score
	return scored
}
