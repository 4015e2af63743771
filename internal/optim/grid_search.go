package optim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/flowsim/internal/config"
	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/experiment"
)

// BuildFunc turns one grid point into a ready experiment.
type BuildFunc func(params map[string]float64) (*experiment.Experiment, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	logger     *slog.Logger
}

func NewGridSearch(params []string, ranges [][]float64, logger *slog.Logger) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d params for %d ranges: %w", len(params), len(ranges), dynamo.ErrInvalidConfig)
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("grid search: empty range for %s: %w", params[i], dynamo.ErrInvalidConfig)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GridSearch{paramNames: params, ranges: ranges, logger: logger}, nil
}

type SearchResult struct {
	Params    map[string]float64
	Value     float64
	Evaluated int
	Failed    int
}

// Search minimizes metricName over the grid using the first integrator of
// each experiment. Points that fail to build or run are logged and
// skipped; cancelling ctx aborts the search.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metricName string) (*SearchResult, error) {
	res := &SearchResult{Value: math.Inf(1)}
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), build, metricName, res); err != nil {
		return res, err
	}
	if res.Params == nil {
		return res, fmt.Errorf("grid search: no point produced %q: %w", metricName, dynamo.ErrInvalidConfig)
	}
	return res, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	build BuildFunc,
	metricName string,
	best *SearchResult,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		best.Evaluated++
		val, err := g.evaluate(ctx, current, build, metricName)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			best.Failed++
			g.logger.Warn("grid point failed", "params", current, "error", err)
			return nil
		}

		if val < best.Value {
			best.Value = val
			best.Params = make(map[string]float64, len(current))
			for k, v := range current {
				best.Params[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, build, metricName, best); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) evaluate(ctx context.Context, params map[string]float64, build BuildFunc, metricName string) (float64, error) {
	exp, err := build(params)
	if err != nil {
		return 0, err
	}
	results, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	val, ok := results[0].Metrics[metricName]
	if !ok {
		return 0, fmt.Errorf("metric %q: %w", metricName, dynamo.ErrUnknownComponent)
	}
	if math.IsNaN(val) {
		return 0, fmt.Errorf("metric %q is NaN: %w", metricName, dynamo.ErrInvalidState)
	}
	return val, nil
}

// FieldParams builds experiments from base with the grid point merged
// into its field parameters.
func FieldParams(base *config.Config, reg *experiment.Registry, logger *slog.Logger) BuildFunc {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		if cfg.FieldParams == nil {
			cfg.FieldParams = make(map[string]float64, len(params))
		}
		for k, v := range params {
			cfg.FieldParams[k] = v
		}
		exp := experiment.New(cfg, reg, logger)
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		return exp, nil
	}
}
