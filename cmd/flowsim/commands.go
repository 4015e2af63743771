package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/flowsim/internal/analysis"
	"github.com/san-kum/flowsim/internal/config"
	"github.com/san-kum/flowsim/internal/dynamo"
	"github.com/san-kum/flowsim/internal/experiment"
	"github.com/san-kum/flowsim/internal/fields"
	"github.com/san-kum/flowsim/internal/metrics"
	"github.com/san-kum/flowsim/internal/sim"
	"github.com/san-kum/flowsim/internal/storage"
	"github.com/san-kum/flowsim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return execute(cmd, cfg, record, drawEvery)
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	switch {
	case len(args) > 0:
		cfg.Compare = args
	case len(cfg.Compare) < 2:
		cfg.Compare = []string{"rk4", "symplectic_euler"}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return execute(cmd, cfg, compareRecord, 0)
}

func execute(cmd *cobra.Command, cfg *config.Config, rec bool, every int) error {
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		if err := s.serveMetrics(metricsAddr); err != nil {
			return err
		}
	}
	if rec {
		if err := s.startRecording(); err != nil {
			return err
		}
	}
	if every > 0 {
		for i, sm := range s.exp.Simulations() {
			view, err := viz.NewView(cfg.View, sm.Field().Dim(), cfg.MaxAge)
			if err != nil {
				return err
			}
			term := viz.NewTerminal(cmd.OutOrStdout(), view, 60, 20)
			term.Every = every
			term.Label = s.exp.Labels()[i]
			sm.AddRenderer(term)
		}
	}

	ctx, stop := signalContext()
	defer stop()

	slog.Info("running simulation",
		"field", cfg.Field,
		"integrators", cfg.Integrators(),
		"ticks", cfg.Ticks,
		"seed", cfg.Seed,
	)
	start := time.Now()
	results, runErr := s.exp.Run(ctx)
	elapsed := time.Since(start)

	closeErr := s.close(results)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return errors.Join(runErr, closeErr)
	}

	printResults(cmd.OutOrStdout(), s, results, elapsed)
	return closeErr
}

func printResults(out io.Writer, s *session, results []*sim.Result, elapsed time.Duration) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(out, "completed %d ticks in %v\n\n", results[0].Ticks, elapsed.Round(time.Millisecond))

	names := make([]string, 0, len(results[0].Metrics))
	for name := range results[0].Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "INTEGRATOR\tLIVE\tEMITTED\tEVICTED\tDIVERGED\tEXITED\tEXPIRED")
	for _, name := range names {
		fmt.Fprintf(w, "\t%s", strings.ToUpper(name))
	}
	fmt.Fprintln(w)
	for i, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d",
			s.exp.Labels()[i], r.Final.Len(), r.Emitted, r.Evicted, r.Diverged, r.Exited, r.Expired)
		for _, name := range names {
			fmt.Fprintf(w, "\t%.6g", r.Metrics[name])
		}
		fmt.Fprintln(w)
	}
	w.Flush()

	for i, r := range results {
		sum := metrics.Summarize(r.Final)
		if sum.Live == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s final state (t=%.2f)\n", s.exp.Labels()[i], sum.Time)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CHANNEL\tMEAN\tSTD\tMIN\tP05\tP50\tP95\tMAX")
		for j, d := range sum.Channels {
			fmt.Fprintf(w, "x%d\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n", j, d.Mean, d.Std, d.Min, d.P05, d.P50, d.P95, d.Max)
		}
		if sum.Energy != nil {
			d := sum.Energy
			fmt.Fprintf(w, "energy\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n", d.Mean, d.Std, d.Min, d.P05, d.P50, d.P95, d.Max)
		}
		if sum.Age != nil {
			d := sum.Age
			fmt.Fprintf(w, "age\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n", d.Mean, d.Std, d.Min, d.P05, d.P50, d.P95, d.Max)
		}
		w.Flush()
	}

	for _, rec := range s.recorders {
		fmt.Fprintf(out, "\nrun id: %s", rec.ID())
	}
	if len(s.recorders) > 0 {
		fmt.Fprintln(out)
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The TUI owns the terminal; logs go to a file under the data dir.
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(filepath.Join(dataDir, "live.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	if err := setupLogging(logFile); err != nil {
		return err
	}

	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	view, err := viz.NewView(cfg.View, s.exp.Simulations()[0].Field().Dim(), cfg.MaxAge)
	if err != nil {
		return err
	}

	limit := 0
	if cmd.Flags().Changed("ticks") {
		limit = cfg.Ticks
	}
	frame := time.Duration(cfg.View.FrameMs) * time.Millisecond
	if frame <= 0 {
		frame = config.DefaultFrameMs * time.Millisecond
	}

	m := viz.NewModel(s.exp, view, viz.LiveOptions{
		Labels:  s.exp.Labels(),
		Frame:   frame,
		Ticks:   limit,
		Width:   viewWidth,
		Height:  viewHeight,
		Theme:   themeName,
		GIFPath: gifPath,
	})
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok && fm.Err() != nil && !errors.Is(fm.Err(), dynamo.ErrTerminated) {
		return fm.Err()
	}
	return nil
}

func renderFinal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	if _, err := s.exp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	sims := s.exp.Simulations()
	for i, sm := range sims {
		label := s.exp.Labels()[i]
		view, err := viz.NewView(cfg.View, sm.Field().Dim(), cfg.MaxAge)
		if err != nil {
			return err
		}

		path := outPath
		if len(sims) > 1 {
			ext := filepath.Ext(outPath)
			path = strings.TrimSuffix(outPath, ext) + "_" + label + ext
		}
		snap := sm.Snapshot()
		if err := writeSVG(path, snap, view, cfg.Field+" "+label); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d particles)\n", path, snap.Len())

		if exportJSON {
			jsonPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
			if err := storage.ExportJSONFile(jsonPath, storage.NewExportData(cfg.Field, label, snap)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", jsonPath)
		}
	}
	return nil
}

func writeSVG(path string, snap sim.Snapshot, view *viz.View, title string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = viz.WriteSVG(f, snap, view, viz.SVGOptions{
		Width:  viewWidth,
		Height: viewHeight,
		Theme:  viz.GetTheme(themeName),
		Title:  title,
	})
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func convergenceOrder(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	names := args
	if len(names) == 0 {
		names = reg.ListIntegrators()
	}
	if orderLevels < 2 {
		return fmt.Errorf("need at least two levels, got %d: %w", orderLevels, dynamo.ErrInvalidConfig)
	}

	h := fields.NewHarmonic()
	x0 := []float64{1, 0}
	exact := func(t float64) []float64 {
		q, p := h.Exact(x0[0], x0[1], t)
		return []float64{q, p}
	}
	dts := analysis.Halving(orderDt, orderLevels)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "harmonic oscillator from (1, 0) to t=%.2f, dt %.4g → %.4g\n\n", orderTime, dts[0], dts[len(dts)-1])

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tORDER\tERROR(dt max)\tERROR(dt min)")
	var series [][]float64
	for _, name := range names {
		in, err := reg.Integrator(name)
		if err != nil {
			return err
		}
		st, err := analysis.StudyOrder(h, in, x0, exact, orderTime, dts)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%.3f\t%.3e\t%.3e\n", name, st.Order, st.Errors[0], st.Errors[len(st.Errors)-1])

		logErr := make([]float64, len(st.Errors))
		for i, e := range st.Errors {
			logErr[i] = math.Log10(e)
		}
		series = append(series, logErr)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(series) > 0 && len(dts) > 1 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, asciigraph.PlotMany(series,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption("log10 error per halving of dt"),
		))
	}
	return nil
}

func analyzeTrajectory(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	f, err := reg.Field(args[0], nil)
	if err != nil {
		return err
	}
	in, err := reg.Integrator(analyzeIntegrator)
	if err != nil {
		return err
	}

	x0 := make([]float64, f.Dim())
	for i := range x0 {
		x0[i] = 1
	}
	if len(args) > 1 {
		if len(args)-1 != f.Dim() {
			return fmt.Errorf("%s needs %d initial values, got %d: %w", args[0], f.Dim(), len(args)-1, dynamo.ErrDimensionMismatch)
		}
		for i, a := range args[1:] {
			if x0[i], err = strconv.ParseFloat(a, 64); err != nil {
				return fmt.Errorf("initial value %q: %w", a, err)
			}
		}
	}
	if xAxis >= f.Dim() || yAxis >= f.Dim() {
		return fmt.Errorf("axes %d,%d outside dimension %d: %w", xAxis, yAxis, f.Dim(), dynamo.ErrDimensionMismatch)
	}

	tr, err := analysis.Integrate(f, in, x0, analyzeDt, analyzeSteps)
	if err != nil {
		return err
	}
	lambda, err := analysis.LyapunovExponent(f, in, x0, analyzeDt, analyzeSteps, 1e-8)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s with %s from %v, %d steps of %g\n\n", args[0], in.Name(), x0, tr.Len()-1, analyzeDt)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "lyapunov exponent\t%.4f\n", lambda)
	fmt.Fprintf(w, "dominant frequency x%d\t%.4f\n", xAxis, analysis.DominantFrequency(tr.Component(xAxis), analyzeDt))
	if h, ok := f.(analysis.HamiltonianField); ok {
		series, err := analysis.EnergySeries(h, in, x0, analyzeDt, analyzeSteps)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "relative energy drift\t%.3e\n", analysis.RelativeDrift(series))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nphase portrait x%d vs x%d\n", xAxis, yAxis)
	fmt.Fprint(out, analysis.PhasePortrait(analysis.Project(tr, xAxis, yAxis), 70, 24))

	if f.Dim() >= 3 {
		level := stat.Mean(tr.Component(2), nil)
		sec := analysis.PoincareSection(tr, 2, level, xAxis, yAxis)
		fmt.Fprintf(out, "\npoincaré section x2 = %.3f: %d crossings\n", level, len(sec))
		if len(sec) > 0 {
			fmt.Fprint(out, analysis.PhasePortrait(sec, 70, 16))
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFIELD\tINTEG\tGROUP\tTIME\tTICKS\tDT\tLIVE\tDIVERGED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%.4f\t%d\t%d\n",
			run.ID,
			run.Field,
			run.Integrator,
			run.Group,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Dt,
			run.Live,
			run.Diverged,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	records, err := st.LoadTicks(runID)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return fmt.Errorf("no data to plot")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "field: %s (%s)\n", meta.Field, meta.Integrator)
	fmt.Fprintf(out, "ticks: %d\n\n", len(records))

	live := make([]float64, len(records))
	removed := make([]float64, len(records))
	energy := make([]float64, len(records))
	hasEnergy := false
	for i, r := range records {
		live[i] = float64(r.Live)
		removed[i] = float64(r.Evicted + r.Diverged + r.Exited + r.Expired)
		energy[i] = r.MeanEnergy
		hasEnergy = hasEnergy || r.MeanEnergy != 0
	}

	plots := []struct {
		data    []float64
		caption string
	}{
		{live, "live particles"},
		{removed, "removed per tick"},
	}
	if hasEnergy {
		plots = append(plots, struct {
			data    []float64
			caption string
		}{energy, "mean energy"})
	}

	for _, p := range plots {
		fmt.Fprintln(out, asciigraph.Plot(p.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
		))
		fmt.Fprintln(out)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tFIELD\tINTEGRATORS\tDT\tTICKS\tCAPACITY\tEMIT\tMAX AGE")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\t%d\t%d\t%g\n",
			name, p.Field, strings.Join(p.Integrators(), ","), p.Dt, p.Ticks, p.Capacity, p.EmitPerTick, p.MaxAge)
	}
	return w.Flush()
}

func listFields(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tDIM\tHAMILTONIAN\tPARAMS")
	for _, name := range reg.ListFields() {
		f, err := reg.Field(name, nil)
		if err != nil {
			return err
		}
		_, ham := f.(dynamo.Hamiltonian)
		fmt.Fprintf(w, "%s\t%d\t%t\t%s\n", name, f.Dim(), ham, formatParams(f))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nintegrators: %s\n", strings.Join(reg.ListIntegrators(), ", "))
	return nil
}

func formatParams(f dynamo.Field) string {
	c, ok := f.(dynamo.Configurable)
	if !ok {
		return "-"
	}
	params := c.Params()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, " ")
}
