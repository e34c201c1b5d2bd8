// Package search expands a search request into per-facet fetch units and
// drives the listing client over them, tolerating per-unit failure.
package search

import (
	"context"
	"errors"
	"time"

	"github.com/spigell/jobsage/internal/jsearch"
	"github.com/spigell/jobsage/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultPacingInterval = 300 * time.Millisecond
	defaultMaxRetries     = 1
)

// Request describes one search run. It is immutable once the run starts.
type Request struct {
	Role      string   `mapstructure:"role"`
	Locations []string `mapstructure:"locations"`
	Pages     int      `mapstructure:"pages"`
}

// Fetcher issues one paginated query per (role, location, page) facet.
type Fetcher interface {
	Search(ctx context.Context, role, location string, page int) ([]jsearch.Listing, error)
}

// PlannerConfig holds the planner tunables. Zero values fall back to defaults.
type PlannerConfig struct {
	// PacingInterval is the minimum delay between consecutive calls for the
	// same location. Rate-limit courtesy, not a correctness requirement.
	PacingInterval time.Duration
	// MaxRetries bounds extra attempts per facet on transient or rate-limit
	// failures.
	MaxRetries int
}

type Planner struct {
	fetcher  Fetcher
	logger   *zap.Logger
	interval time.Duration
	retries  int
}

func NewPlanner(fetcher Fetcher, cfg *PlannerConfig, logger *zap.Logger) *Planner {
	interval := defaultPacingInterval
	retries := defaultMaxRetries

	if cfg != nil {
		if cfg.PacingInterval > 0 {
			interval = cfg.PacingInterval
		}
		if cfg.MaxRetries >= 0 {
			retries = cfg.MaxRetries
		}
	}

	return &Planner{
		fetcher:  fetcher,
		logger:   logger,
		interval: interval,
		retries:  retries,
	}
}

// Plan fetches every (location, page) facet of the request and returns the
// merged, deduplicated listings. Locations run in parallel; pages within one
// location are serialized and paced. A facet that keeps failing contributes
// zero listings and never aborts the plan, so an all-failed run yields an
// empty slice with a nil error.
func (p *Planner) Plan(ctx context.Context, req *Request) ([]jsearch.Listing, error) {
	if req == nil {
		return nil, errors.New("request is required")
	}

	// Results are merged by location index, not completion order, so the
	// output order stays deterministic across runs.
	results := make([][]jsearch.Listing, len(req.Locations))

	g, gctx := errgroup.WithContext(ctx)
	for i, location := range req.Locations {
		g.Go(func() error {
			results[i] = p.fetchLocation(gctx, req.Role, location, req.Pages)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []jsearch.Listing
	for _, part := range results {
		merged = append(merged, part...)
	}

	return p.dedupe(merged), nil
}

func (p *Planner) fetchLocation(ctx context.Context, role, location string, pages int) []jsearch.Listing {
	limiter := rate.NewLimiter(rate.Every(p.interval), 1)

	var out []jsearch.Listing
	for page := 1; page <= pages; page++ {
		p.logger.Info("fetching facet",
			zap.String("role", role),
			zap.String("location", location),
			zap.Int("page", page),
		)

		listings, err := p.fetchFacet(ctx, limiter, role, location, page)
		if err != nil {
			p.logger.Warn("skipping facet",
				zap.String("location", location),
				zap.Int("page", page),
				zap.Error(err),
			)
			continue
		}

		out = append(out, listings...)
	}

	return out
}

func (p *Planner) fetchFacet(ctx context.Context, limiter *rate.Limiter, role, location string, page int) ([]jsearch.Listing, error) {
	var lastErr error

	for attempt := 0; attempt <= p.retries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		listings, err := p.fetcher.Search(ctx, role, location, page)
		if err == nil {
			return listings, nil
		}
		lastErr = err

		var schema *jsearch.SchemaError
		if errors.As(err, &schema) {
			// Malformed body never gets better on retry. The facet is
			// skipped with an empty result instead of a hard failure.
			p.logger.Warn("malformed response for facet",
				zap.String("location", location),
				zap.Int("page", page),
				zap.Error(err),
			)
			return nil, nil
		}

		if !retryable(err) {
			return nil, err
		}

		if attempt < p.retries {
			p.logger.Debug("retrying facet",
				zap.String("location", location),
				zap.Int("page", page),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			if err := utils.WaitFor(ctx, p.interval); err != nil {
				return nil, err
			}
		}
	}

	return nil, lastErr
}

func retryable(err error) bool {
	var transient *jsearch.TransientError
	var limited *jsearch.RateLimitError

	return errors.As(err, &transient) || errors.As(err, &limited)
}

// dedupe collapses listings that share an identity key. First-seen wins, and
// the relative fetch order of survivors is preserved.
func (p *Planner) dedupe(listings []jsearch.Listing) []jsearch.Listing {
	seen := make(map[string]struct{}, len(listings))
	out := make([]jsearch.Listing, 0, len(listings))

	for _, listing := range listings {
		key := listing.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, listing)
	}

	if dropped := len(listings) - len(out); dropped > 0 {
		p.logger.Info("deduplicated listings",
			zap.Int("initial", len(listings)),
			zap.Int("dropped", dropped),
			zap.Int("left", len(out)),
		)
	}

	return out
}
