package ai

import (
	"context"

	"github.com/spigell/jobsage/internal/jsearch"
)

// Scorer rates how well a profile document matches a job listing on a 0-100
// scale. Implementations must bound every call with a timeout.
type Scorer interface {
	Score(ctx context.Context, resume string, listing *jsearch.Listing) (int, error)
}
