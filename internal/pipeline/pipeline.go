// Package pipeline composes planning, fetching, scoring and aggregation into
// one synchronous run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/jobsage/internal/jsearch"
	"github.com/spigell/jobsage/internal/report"
	"github.com/spigell/jobsage/internal/scoring"
	"github.com/spigell/jobsage/internal/search"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State tracks the linear progress of a run. Per-unit and per-item failures
// are absorbed by the fetch and scoring stages; only orchestration-level
// errors reach StateFailed.
type State string

const (
	StateIdle        State = "idle"
	StatePlanning    State = "planning"
	StateFetching    State = "fetching"
	StateScoring     State = "scoring"
	StateAggregating State = "aggregating"
	StatePersisted   State = "persisted"
	StateFailed      State = "failed"
)

var (
	ErrMissingProfile = errors.New("profile document is required")
	ErrInvalidRequest = errors.New("invalid search request")
)

// Request carries everything one run needs. It is immutable once Run starts.
type Request struct {
	Search    *search.Request
	Resume    string
	Threshold int
}

type Planner interface {
	Plan(ctx context.Context, req *search.Request) ([]jsearch.Listing, error)
}

type Coordinator interface {
	ScoreAll(ctx context.Context, resume string, listings []jsearch.Listing) []scoring.Scored
}

type Store interface {
	Save(table *report.Table) error
}

type Pipeline struct {
	planner     Planner
	coordinator Coordinator
	store       Store
	logger      *zap.Logger
	state       State
}

// Result is the outcome of a successful run. A run that found nothing still
// succeeds with an empty table.
type Result struct {
	RunID    string
	Table    *report.Table
	Filtered []scoring.Scored
}

func New(planner Planner, coordinator Coordinator, store Store, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		planner:     planner,
		coordinator: coordinator,
		store:       store,
		logger:      logger,
		state:       StateIdle,
	}
}

func (p *Pipeline) State() State {
	return p.state
}

// Run executes one full pipeline invocation: validate, fetch, score,
// aggregate, persist. Each invocation is a fresh run; the persisted table is
// overwritten, never appended to.
func (p *Pipeline) Run(ctx context.Context, req *Request) (*Result, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))

	p.transition(log, StatePlanning)
	if err := validate(req); err != nil {
		p.transition(log, StateFailed)
		return nil, err
	}

	p.transition(log, StateFetching)
	listings, err := p.planner.Plan(ctx, req.Search)
	if err != nil {
		p.transition(log, StateFailed)
		return nil, fmt.Errorf("planning facets: %w", err)
	}
	log.Info("fetched listings", zap.Int("count", len(listings)))

	p.transition(log, StateScoring)
	scored := p.coordinator.ScoreAll(ctx, req.Resume, listings)

	p.transition(log, StateAggregating)
	table := report.Aggregate(scored)

	if err := p.store.Save(table); err != nil {
		p.transition(log, StateFailed)
		return nil, fmt.Errorf("persisting table: %w", err)
	}

	p.transition(log, StatePersisted)
	log.Info("run completed",
		zap.Int("listings", table.Len()),
		zap.Int("threshold", req.Threshold),
	)

	return &Result{
		RunID:    runID,
		Table:    table,
		Filtered: table.Filtered(req.Threshold),
	}, nil
}

func (p *Pipeline) transition(log *zap.Logger, next State) {
	p.state = next
	log.Debug("pipeline state", zap.String("state", string(next)))
}

func validate(req *Request) error {
	if req == nil {
		return ErrInvalidRequest
	}
	if strings.TrimSpace(req.Resume) == "" {
		return ErrMissingProfile
	}
	if req.Search == nil || strings.TrimSpace(req.Search.Role) == "" {
		return fmt.Errorf("%w: role is required", ErrInvalidRequest)
	}
	if len(req.Search.Locations) == 0 {
		return fmt.Errorf("%w: at least one location is required", ErrInvalidRequest)
	}
	if req.Search.Pages < 1 {
		return fmt.Errorf("%w: pages must be positive", ErrInvalidRequest)
	}
	if req.Threshold < 0 || req.Threshold > 100 {
		return fmt.Errorf("%w: threshold must be within [0,100]", ErrInvalidRequest)
	}
	return nil
}
