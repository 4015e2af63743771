package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/flowsim/internal/automation"
	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/experiment"
	"github.com/san-kum/flowsim/internal/optim"
)

var (
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	sweepMetric string

	trials    int
	mcMetric  string
	mcSeed    int64
	gridSpecs []string
	gridGoal  string
)

func addBatchCommands(root *cobra.Command) {
	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a yaml scenario in order",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run once per value of a field parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "field parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "population", "metric to plot")
	sweepCmd.MarkFlagRequired("param")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "repeat a run with fresh emission seeds",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addConfigFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	mcCmd.Flags().StringVar(&mcMetric, "metric", "population", "metric to summarize")
	mcCmd.Flags().Int64Var(&mcSeed, "trial-seed", 0, "seed for the per-trial seeds (0 uses the clock)")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid search field parameters minimizing a metric",
		Args:  cobra.NoArgs,
		RunE:  runSearch,
	}
	addConfigFlags(searchCmd)
	searchCmd.Flags().StringArrayVar(&gridSpecs, "grid", nil, "param=v1,v2,... (repeatable)")
	searchCmd.Flags().StringVar(&gridGoal, "metric", "energy_drift", "metric to minimize")
	searchCmd.MarkFlagRequired("grid")

	root.AddCommand(scenarioCmd, sweepCmd, mcCmd, searchCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), slog.Default())

	out := cmd.OutOrStdout()
	if sc.Description != "" {
		fmt.Fprintf(out, "%s: %s\n\n", sc.Name, sc.Description)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tFIELD\tINTEGRATOR\tTICKS\tLIVE\tDIVERGED\tEXITED")
	for _, step := range results {
		for i, r := range step.Results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
				step.Name, step.Config.Field, step.Labels[i], r.Ticks, r.Final.Len(), r.Diverged, r.Exited)
		}
	}
	if flushErr := w.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:  cfg,
		Param: sweepParam,
		Min:   sweepMin,
		Max:   sweepMax,
		Steps: sweepSteps,
	}, experiment.NewRegistry(), slog.Default())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tLIVE\tDIVERGED\t%s\n", strings.ToUpper(sweepParam), strings.ToUpper(sweepMetric))
	series := make([]float64, len(results))
	for i, r := range results {
		series[i] = r.Metrics[sweepMetric]
		fmt.Fprintf(w, "%.4g\t%d\t%d\t%.6g\n", r.Value, r.Live, r.Diverged, series[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, asciigraph.Plot(series,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("%s vs %s in [%g, %g]", sweepMetric, sweepParam, sweepMin, sweepMax)),
	))
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:   cfg,
		Trials: trials,
		Seed:   mcSeed,
	}, experiment.NewRegistry(), slog.Default())
	if err != nil {
		return err
	}

	stable, dist, ok := automation.MonteCarloStats(results, mcMetric)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d trials, %d without divergence\n", len(results), stable)
	if !ok {
		return fmt.Errorf("metric %q: %w", mcMetric, dynamo.ErrUnknownComponent)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tP05\tP50\tP95\tMAX")
	fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n",
		mcMetric, dist.Mean, dist.Std, dist.Min, dist.P05, dist.P50, dist.P95, dist.Max)
	return w.Flush()
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(gridSpecs)
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	g, err := optim.NewGridSearch(names, ranges, slog.Default())
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	res, err := g.Search(ctx, optim.FieldParams(cfg, reg, slog.Default()), gridGoal)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "evaluated %d points (%d failed)\n", res.Evaluated, res.Failed)
	fmt.Fprintf(out, "best %s = %.6g at", gridGoal, res.Value)
	for _, name := range names {
		fmt.Fprintf(out, " %s=%g", name, res.Params[name])
	}
	fmt.Fprintln(out)
	return nil
}

// parseGrid reads "name=v1,v2,..." specs in flag order.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, entry := range specs {
		name, list, ok := strings.Cut(entry, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("grid %q: want name=v1,v2: %w", entry, dynamo.ErrInvalidConfig)
		}
		var values []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %q: %w", entry, err)
			}
			values = append(values, v)
		}
		sort.Float64s(values)
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}
