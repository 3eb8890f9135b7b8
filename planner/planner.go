// Package planner wires analysis, enumeration, cost estimation,
// rewriting, and selection into the single entry point applications call
// to turn a query into a chosen physical plan (spec.md §2 data flow).
package planner

import (
	"context"
	"time"

	"github.com/mantisdb/planner/analysis"
	"github.com/mantisdb/planner/config"
	"github.com/mantisdb/planner/costestimator"
	"github.com/mantisdb/planner/costmodel"
	"github.com/mantisdb/planner/enumerator"
	"github.com/mantisdb/planner/index"
	"github.com/mantisdb/planner/normalize"
	"github.com/mantisdb/planner/planerr"
	"github.com/mantisdb/planner/planlog"
	"github.com/mantisdb/planner/planop"
	"github.com/mantisdb/planner/predicate"
	"github.com/mantisdb/planner/selector"
	"github.com/mantisdb/planner/stats"
	"go.uber.org/zap"
)

// Planner holds everything a call to Plan needs beyond the query and the
// statistics snapshot (both passed to Plan): the index catalog,
// configuration, weights (overridable for tests/tuning), an optional
// bitmap provider, and a logger.
type Planner struct {
	Catalog index.Catalog
	Config  config.Config
	Weights costmodel.Weights
	Bitmaps enumerator.BitmapProvider
	Logger  *planlog.Logger
}

// New builds a Planner with default weights and a no-op logger.
func New(catalog index.Catalog, cfg config.Config) *Planner {
	return &Planner{
		Catalog: catalog,
		Config:  cfg,
		Weights: costmodel.DefaultWeights,
		Logger:  planlog.NewNop(),
	}
}

// Plan turns q into a chosen physical plan against snapshot, honoring
// every budget in pl.Config. On a resource breach it returns the best
// candidate found so far, per spec.md §5, unless no candidate survived
// at all.
func (pl *Planner) Plan(ctx context.Context, q analysis.Query, snapshot *stats.Snapshot) (*planop.Plan, error) {
	start := time.Now()
	logger := pl.Logger
	if logger == nil {
		logger = planlog.NewNop()
	}

	original := combinePredicates(q.Predicates)
	normalized, err := normalizeWithBudget(original)
	if err != nil {
		return nil, err
	}

	qa := analysis.Analyze(q, original, normalized)
	logger.Debug("analyzed query", zap.String("recordType", qa.RecordType), zap.Int("fieldConditions", len(qa.FieldConditions)))

	en := enumerator.New(pl.Catalog, snapshot, pl.Config, pl.Bitmaps)
	result := en.Enumerate(qa)
	if len(result.Candidates) == 0 {
		return nil, &planerr.NoViableCandidate{Reason: "enumerator produced zero candidates"}
	}

	if pl.timedOut(start) {
		logger.Warn("planning timed out during enumeration, falling back to best-so-far")
		return pl.bestSoFar(result.Candidates, qa, snapshot)
	}

	estimator := costestimator.NewEstimator(pl.Weights, func(rt string) int64 {
		return snapshot.EstimatedRowCount(rt)
	}, func(idx index.Descriptor) int64 {
		return 0
	})
	for _, c := range result.Candidates {
		estimator.Estimate(c, qa.SortDescriptors)
	}

	sel := &selector.Selector{
		Weights:             pl.Weights,
		ComplexityThreshold: pl.Config.ComplexityThreshold,
		RuleBudget:          pl.Config.MaxRuleApplications,
		CostBased:           pl.Config.EnableCostBasedOptimization,
	}

	winner, err := sel.Select(result.Candidates)
	if err != nil {
		logger.Warn("selection failed", zap.Error(err))
		return nil, err
	}
	logger.Info("plan selected", zap.Float64("totalCost", winner.Cost.TotalCost(pl.Weights)))
	return winner, nil
}

func (pl *Planner) timedOut(start time.Time) bool {
	if pl.Config.TimeoutSeconds <= 0 {
		return false
	}
	return time.Since(start) > time.Duration(pl.Config.TimeoutSeconds*float64(time.Second))
}

// bestSoFar costs and selects from whatever candidates survived up to a
// budget breach, never returning an empty-candidate error since the
// caller already checked that case.
func (pl *Planner) bestSoFar(candidates []*planop.Plan, qa analysis.QueryAnalysis, snapshot *stats.Snapshot) (*planop.Plan, error) {
	estimator := costestimator.NewEstimator(pl.Weights, func(rt string) int64 {
		return snapshot.EstimatedRowCount(rt)
	}, func(idx index.Descriptor) int64 { return 0 })
	for _, c := range candidates {
		estimator.Estimate(c, qa.SortDescriptors)
	}
	sel := &selector.Selector{
		Weights:             pl.Weights,
		ComplexityThreshold: pl.Config.ComplexityThreshold,
		RuleBudget:          pl.Config.MaxRuleApplications,
		CostBased:           pl.Config.EnableCostBasedOptimization,
	}
	return sel.Select(candidates)
}

// combinePredicates conjoins multiple top-level predicates into one tree,
// matching how a Query's predicate list is implicitly ANDed together.
func combinePredicates(preds []*predicate.Predicate) *predicate.Predicate {
	switch len(preds) {
	case 0:
		return predicate.True()
	case 1:
		return preds[0]
	default:
		return predicate.And(preds...)
	}
}

// normalizeWithBudget runs NNF unconditionally (it cannot explode — it
// only flips Not polarity) and surfaces a structured error only if NNF
// itself somehow fails, which it cannot by construction; kept as a
// function boundary so a future normalization step with its own budget
// slots in without changing callers.
func normalizeWithBudget(p *predicate.Predicate) (*predicate.Predicate, error) {
	return normalize.NNF(p), nil
}
